package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// exportArchive is an exported chat archive unpacked on disk. The layout is
// the standard workspace export: channels.json and users.json at the root,
// plus one directory per channel holding JSON day files of messages.
type exportArchive struct {
	path     string
	Channels []ChannelInfo
	Users    map[string]string
}

type exportUser struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Profile struct {
		DisplayName string `json:"display_name"`
		RealName    string `json:"real_name"`
	} `json:"profile"`
}

type exportMessage struct {
	Type     string `json:"type"`
	Subtype  string `json:"subtype"`
	TS       string `json:"ts"`
	ThreadTS string `json:"thread_ts"`
	User     string `json:"user"`
	Text     string `json:"text"`
}

func openExport(path string) (*exportArchive, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("export path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("export path %s is not a directory", path)
	}

	var channels []ChannelInfo
	if err := readExportJSON(filepath.Join(path, "channels.json"), &channels); err != nil {
		return nil, err
	}

	users := map[string]string{}
	var rawUsers []exportUser
	if err := readExportJSON(filepath.Join(path, "users.json"), &rawUsers); err == nil {
		for _, u := range rawUsers {
			name := u.Profile.DisplayName
			if name == "" {
				name = u.Profile.RealName
			}
			if name == "" {
				name = u.Name
			}
			users[u.ID] = name
		}
	}

	return &exportArchive{path: path, Channels: channels, Users: users}, nil
}

// ChannelMessages reads every day file of one channel directory, in date
// order. Non-message entries (joins, topic changes) are dropped.
func (e *exportArchive) ChannelMessages(channelName string) ([]RawMessage, error) {
	dir := filepath.Join(e.path, channelName)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("channel directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var messages []RawMessage
	for _, name := range names {
		var day []exportMessage
		if err := readExportJSON(filepath.Join(dir, name), &day); err != nil {
			return nil, err
		}
		for _, msg := range day {
			if msg.Type != "message" || msg.Subtype != "" || msg.Text == "" {
				continue
			}
			messages = append(messages, RawMessage{
				TS:       msg.TS,
				ThreadTS: msg.ThreadTS,
				UserID:   msg.User,
				Text:     msg.Text,
			})
		}
	}
	return messages, nil
}

func readExportJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
