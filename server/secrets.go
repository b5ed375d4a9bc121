// Copyright (c) 2023 BVK Chaitanya

package server

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/bvk/barterbot/pushover"
	"github.com/bvk/barterbot/telegram"
	"github.com/bvk/barterbot/tradeoffer"
)

type Secrets struct {
	Economy  *tradeoffer.Credentials `json:"economy"`
	Pushover *pushover.Keys          `json:"pushover"`
	Telegram *telegram.Secrets       `json:"telegram"`
}

func SecretsFromFile(fpath string) (*Secrets, error) {
	data, err := os.ReadFile(fpath)
	if err != nil {
		return nil, err
	}
	s := new(Secrets)
	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (v *Secrets) Check() error {
	if v.Economy == nil {
		return fmt.Errorf("trading platform api keys are required")
	}
	if err := v.Economy.Check(); err != nil {
		return err
	}
	if v.Pushover != nil {
		if err := v.Pushover.Check(); err != nil {
			return err
		}
	}
	if v.Telegram != nil {
		if err := v.Telegram.Check(); err != nil {
			return err
		}
	}
	return nil
}
