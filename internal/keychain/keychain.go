package keychain

import (
	"errors"

	"github.com/zalando/go-keyring"
)

const serviceName = "autoapprove"

// BotTokenAccount is the keychain account holding the Telegram bot token.
const BotTokenAccount = "bot_token"

// BotToken returns the stored bot token, or "" when none is stored or the
// keychain is unavailable.
func BotToken() string {
	token, err := keyring.Get(serviceName, BotTokenAccount)
	if err != nil {
		return ""
	}
	return token
}

// StoreBotToken saves the bot token in the system keychain.
func StoreBotToken(token string) error {
	if token == "" {
		return errors.New("token is empty")
	}
	return keyring.Set(serviceName, BotTokenAccount, token)
}

// DeleteBotToken removes the stored bot token. Deleting a missing token is not an error.
func DeleteBotToken() error {
	err := keyring.Delete(serviceName, BotTokenAccount)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
