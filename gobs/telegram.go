// Copyright (c) 2025 BVK Chaitanya

package gobs

type TelegramState struct {
	// UserChatIDMap remembers the chat id for each authorized username.
	UserChatIDMap map[string]int64
}
