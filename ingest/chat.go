// Copyright 2026 Corvid Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/corvid-labs/corpora/core"
	"github.com/corvid-labs/corpora/rawstore"
)

const defaultHistoryDays = 30

// ChannelInfo describes a chat channel.
type ChannelInfo struct {
	ID   string
	Name string
}

// RawMessage is a platform-native chat message before thread grouping.
// TS is the platform timestamp string and doubles as message identity;
// ThreadTS links a reply to its thread root and is empty for top-level
// messages.
type RawMessage struct {
	TS       string
	ThreadTS string
	UserID   string
	Text     string
}

// ChatClient reads from a live chat platform.
type ChatClient interface {
	// ChannelInfo resolves a channel identifier to its metadata.
	ChannelInfo(ctx context.Context, channelID string) (*ChannelInfo, error)

	// ChannelHistory returns up to limit messages newer than oldest.
	ChannelHistory(ctx context.Context, channelID string, oldest time.Time, limit int) ([]RawMessage, error)

	// Users returns a mapping of user ID to display name.
	Users(ctx context.Context) (map[string]string, error)
}

// ChatIngestor ingests chat conversations, one stored unit per thread.
type ChatIngestor struct {
	store        *rawstore.Store
	client       ChatClient
	historyLimit int
	logger       *slog.Logger
}

// ChatOption configures a ChatIngestor.
type ChatOption func(*ChatIngestor)

// WithChatClient sets the live-API client. Without one, only export
// ingestion is available.
func WithChatClient(client ChatClient) ChatOption {
	return func(c *ChatIngestor) { c.client = client }
}

// WithChatLogger sets a custom logger. Default is slog.Default().
func WithChatLogger(logger *slog.Logger) ChatOption {
	return func(c *ChatIngestor) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithChatHistoryLimit caps the number of messages fetched per channel.
func WithChatHistoryLimit(limit int) ChatOption {
	return func(c *ChatIngestor) {
		if limit > 0 {
			c.historyLimit = limit
		}
	}
}

// NewChatIngestor creates a chat ingestor writing through the given store.
func NewChatIngestor(store *rawstore.Store, opts ...ChatOption) (*ChatIngestor, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	c := &ChatIngestor{
		store:        store,
		historyLimit: 1000,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SourceType implements Ingestor.
func (c *ChatIngestor) SourceType() core.SourceType { return core.SourceChat }

// Ingest implements Ingestor for chat sources. A selector of the wrong type
// or with no scope is a caller error and returns before any record is
// written.
func (c *ChatIngestor) Ingest(ctx context.Context, sel Selector) (*core.IngestionRecord, error) {
	chatSel, ok := sel.(ChatSelector)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrSelectorMismatch, sel)
	}
	switch {
	case chatSel.ExportPath != "":
		return c.ingestExport(ctx, chatSel.ExportPath)
	case chatSel.ChannelID != "":
		return c.ingestChannel(ctx, chatSel)
	default:
		return nil, fmt.Errorf("%w: chat selector needs a channel id or export path", ErrEmptySelector)
	}
}

func (c *ChatIngestor) ingestChannel(ctx context.Context, sel ChatSelector) (*core.IngestionRecord, error) {
	if c.client == nil {
		return nil, fmt.Errorf("%w: chat client", ErrClientRequired)
	}

	record := core.NewIngestionRecord(core.SourceChat, sel.ChannelID)
	defer c.logRecord(record)

	info, err := c.client.ChannelInfo(ctx, sel.ChannelID)
	if err != nil {
		err = fmt.Errorf("%w: channel info: %w", ErrSourceUnavailable, err)
		record.Fail(err)
		return record, err
	}
	record.SourceIdentifiers = append(record.SourceIdentifiers, info.Name)
	c.logger.Info("ingesting chat channel", "channel", info.Name, "id", info.ID)

	days := sel.Days
	if days <= 0 {
		days = defaultHistoryDays
	}
	oldest := time.Now().UTC().AddDate(0, 0, -days)

	messages, err := c.client.ChannelHistory(ctx, sel.ChannelID, oldest, c.historyLimit)
	if err != nil {
		err = fmt.Errorf("%w: channel history: %w", ErrSourceUnavailable, err)
		record.Fail(err)
		return record, err
	}

	users, err := c.client.Users(ctx)
	if err != nil {
		// Name resolution is best-effort; raw user IDs still identify authors.
		c.logger.Warn("could not resolve user names", "err", err)
		users = nil
	}

	batchID, err := c.store.CreateBatch(core.SourceChat, info.Name)
	if err != nil {
		record.Fail(err)
		return record, err
	}

	c.storeThreads(batchID, info.ID, info.Name, messages, users, record)
	record.Complete()
	return record, nil
}

// ingestExport reads an exported chat archive directory: channels.json,
// users.json, and one directory of day files per channel.
func (c *ChatIngestor) ingestExport(ctx context.Context, exportPath string) (*core.IngestionRecord, error) {
	record := core.NewIngestionRecord(core.SourceChat, "export")
	defer c.logRecord(record)

	export, err := openExport(exportPath)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		record.Fail(err)
		return record, err
	}
	c.logger.Info("ingesting chat export",
		"path", exportPath, "channels", len(export.Channels), "users", len(export.Users))

	batchID, err := c.store.CreateBatch(core.SourceChat, "chat_export")
	if err != nil {
		record.Fail(err)
		return record, err
	}

	for _, channel := range export.Channels {
		if err := ctx.Err(); err != nil {
			record.Fail(err)
			return record, err
		}
		messages, err := export.ChannelMessages(channel.Name)
		if err != nil {
			c.logger.Error("failed to read channel from export", "channel", channel.Name, "err", err)
			record.DocumentsFailed++
			continue
		}
		record.SourceIdentifiers = append(record.SourceIdentifiers, channel.Name)
		c.storeThreads(batchID, channel.ID, channel.Name, messages, export.Users, record)
	}

	record.Complete()
	return record, nil
}

// storeThreads groups messages into threads and stores one unit per thread,
// counting successes and failures on the record.
func (c *ChatIngestor) storeThreads(batchID core.BatchID, channelID, channelName string, messages []RawMessage, users map[string]string, record *core.IngestionRecord) {
	threads := groupThreads(messages)
	for _, thread := range threads {
		bytes, err := c.storeThread(batchID, channelID, channelName, thread, users)
		if err != nil {
			c.logger.Error("failed to store thread", "channel", channelName, "thread", thread[0].threadID(), "err", err)
			record.DocumentsFailed++
			continue
		}
		record.DocumentsIngested++
		record.BytesProcessed += bytes
	}
}

func (c *ChatIngestor) storeThread(batchID core.BatchID, channelID, channelName string, messages []RawMessage, users map[string]string) (int64, error) {
	threadID := messages[0].threadID()

	participants := make([]string, 0, len(messages))
	seen := map[string]bool{}
	converted := make([]core.ChatMessage, 0, len(messages))
	var bytes int64
	for _, msg := range messages {
		name := msg.UserID
		if resolved, ok := users[msg.UserID]; ok && resolved != "" {
			name = resolved
		}
		if !seen[name] {
			seen[name] = true
			participants = append(participants, name)
		}
		converted = append(converted, core.ChatMessage{
			UserID:    msg.UserID,
			UserName:  name,
			Text:      msg.Text,
			Timestamp: parseTS(msg.TS),
			TS:        msg.TS,
		})
		bytes += int64(len(msg.Text))
	}

	thread := core.ChatThread{
		ThreadID:     threadID,
		ChannelID:    channelID,
		ChannelName:  channelName,
		MessageCount: len(messages),
		Participants: participants,
		Messages:     converted,
	}

	firstTS := parseTS(messages[0].TS)
	meta := core.DocumentMetadata{
		SourceType:      core.SourceChat,
		SourceID:        threadID,
		SourceName:      "#" + channelName,
		IngestedAt:      time.Now().UTC(),
		SourceTimestamp: &firstTS,
		Extra: map[string]any{
			"channel_id":    channelID,
			"channel_name":  channelName,
			"participants":  participants,
			"message_count": len(messages),
		},
	}

	_, err := c.store.StoreDocument(batchID, core.DocumentID("thread_"+core.SanitizeName(threadID)), thread, meta)
	return bytes, err
}

func (c *ChatIngestor) logRecord(record *core.IngestionRecord) {
	if err := c.store.LogIngestion(record); err != nil {
		c.logger.Error("failed to persist ingestion record", "ingestion", record.IngestionID, "err", err)
	}
}

func (m RawMessage) threadID() string {
	if m.ThreadTS != "" {
		return m.ThreadTS
	}
	return m.TS
}

// groupThreads buckets messages by thread root and orders each thread by
// timestamp. Threads are returned in chronological order of their roots so
// storage order follows source-enumeration order.
func groupThreads(messages []RawMessage) [][]RawMessage {
	buckets := map[string][]RawMessage{}
	for _, msg := range messages {
		id := msg.threadID()
		buckets[id] = append(buckets[id], msg)
	}

	keys := make([]string, 0, len(buckets))
	for id := range buckets {
		keys = append(keys, id)
	}
	sort.Slice(keys, func(i, j int) bool { return tsFloat(keys[i]) < tsFloat(keys[j]) })

	threads := make([][]RawMessage, 0, len(keys))
	for _, id := range keys {
		thread := buckets[id]
		sort.Slice(thread, func(i, j int) bool { return tsFloat(thread[i].TS) < tsFloat(thread[j].TS) })
		threads = append(threads, thread)
	}
	return threads
}

func tsFloat(ts string) float64 {
	f, _ := strconv.ParseFloat(ts, 64)
	return f
}

func parseTS(ts string) time.Time {
	f, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return time.Time{}
	}
	sec := int64(f)
	nsec := int64((f - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC()
}
