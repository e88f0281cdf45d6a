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
	"strconv"
	"time"

	"github.com/slack-go/slack"
)

// SlackClient implements ChatClient against the Slack Web API.
type SlackClient struct {
	api *slack.Client
}

// NewSlackClient creates a client authenticated with a bot token.
func NewSlackClient(token string) *SlackClient {
	return &SlackClient{api: slack.New(token)}
}

// ChannelInfo implements ChatClient.
func (s *SlackClient) ChannelInfo(ctx context.Context, channelID string) (*ChannelInfo, error) {
	channel, err := s.api.GetConversationInfoContext(ctx, &slack.GetConversationInfoInput{
		ChannelID: channelID,
	})
	if err != nil {
		return nil, fmt.Errorf("conversations.info: %w", err)
	}
	return &ChannelInfo{ID: channel.ID, Name: channel.Name}, nil
}

// ChannelHistory implements ChatClient. History is paginated until limit is
// reached, and threaded replies are fetched inline so callers see a flat
// message list.
func (s *SlackClient) ChannelHistory(ctx context.Context, channelID string, oldest time.Time, limit int) ([]RawMessage, error) {
	var messages []RawMessage
	cursor := ""
	oldestTS := strconv.FormatInt(oldest.Unix(), 10)

	for len(messages) < limit {
		resp, err := s.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
			ChannelID: channelID,
			Oldest:    oldestTS,
			Limit:     200,
			Cursor:    cursor,
		})
		if err != nil {
			return nil, fmt.Errorf("conversations.history: %w", err)
		}

		for _, msg := range resp.Messages {
			if msg.SubType != "" || msg.Text == "" {
				continue
			}
			messages = append(messages, toRawMessage(msg))
			if msg.ReplyCount > 0 {
				replies, err := s.threadReplies(ctx, channelID, msg.Timestamp)
				if err != nil {
					return nil, err
				}
				messages = append(messages, replies...)
			}
		}

		if !resp.HasMore || resp.ResponseMetaData.NextCursor == "" {
			break
		}
		cursor = resp.ResponseMetaData.NextCursor
	}

	if len(messages) > limit {
		messages = messages[:limit]
	}
	return messages, nil
}

func (s *SlackClient) threadReplies(ctx context.Context, channelID, threadTS string) ([]RawMessage, error) {
	var replies []RawMessage
	cursor := ""
	for {
		msgs, hasMore, nextCursor, err := s.api.GetConversationRepliesContext(ctx, &slack.GetConversationRepliesParameters{
			ChannelID: channelID,
			Timestamp: threadTS,
			Cursor:    cursor,
		})
		if err != nil {
			return nil, fmt.Errorf("conversations.replies: %w", err)
		}
		for _, msg := range msgs {
			// The root message is part of the replies response too.
			if msg.Timestamp == threadTS || msg.SubType != "" || msg.Text == "" {
				continue
			}
			replies = append(replies, toRawMessage(msg))
		}
		if !hasMore || nextCursor == "" {
			return replies, nil
		}
		cursor = nextCursor
	}
}

// Users implements ChatClient, preferring display names over account names.
func (s *SlackClient) Users(ctx context.Context) (map[string]string, error) {
	users, err := s.api.GetUsersContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("users.list: %w", err)
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		name := u.Profile.DisplayName
		if name == "" {
			name = u.RealName
		}
		if name == "" {
			name = u.Name
		}
		names[u.ID] = name
	}
	return names, nil
}

func toRawMessage(msg slack.Message) RawMessage {
	return RawMessage{
		TS:       msg.Timestamp,
		ThreadTS: msg.ThreadTimestamp,
		UserID:   msg.User,
		Text:     msg.Text,
	}
}
