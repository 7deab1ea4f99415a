package formatter

import (
	"encoding/json"
	"fmt"

	"github.com/go-telegram/bot/models"

	appmodels "github.com/mixelka/otpfill/pkg/models"
)

// maxCallbackData is Telegram's limit for callback data in bytes
const maxCallbackData = 64

// BuildCodesKeyboard creates an inline keyboard with a Fill button per code
// and a Rescan button
func BuildCodesKeyboard(candidates []appmodels.Candidate, filterEmail string) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton

	var codeButtons []models.InlineKeyboardButton
	for _, c := range candidates {
		codeButtons = append(codeButtons, models.InlineKeyboardButton{
			Text: fmt.Sprintf("Fill %s", c.Code),
			CallbackData: EncodeCallback(appmodels.CallbackData{
				Action: appmodels.CallbackFillCode,
				Code:   c.Code,
			}),
		})
	}
	// Split into rows of 2 buttons each
	for i := 0; i < len(codeButtons); i += 2 {
		end := min(i+2, len(codeButtons))
		rows = append(rows, codeButtons[i:end])
	}

	rows = append(rows, []models.InlineKeyboardButton{{
		Text: "Rescan",
		CallbackData: EncodeCallback(appmodels.CallbackData{
			Action: appmodels.CallbackRescan,
			Email:  filterEmail,
		}),
	}})

	return &models.InlineKeyboardMarkup{
		InlineKeyboard: rows,
	}
}

// EncodeCallback encodes callback data to string. An account filter that
// does not fit is dropped.
func EncodeCallback(data appmodels.CallbackData) string {
	b, _ := json.Marshal(data)
	if len(b) > maxCallbackData && data.Email != "" {
		data.Email = ""
		b, _ = json.Marshal(data)
	}
	return string(b)
}

// DecodeCallback decodes callback data from string
func DecodeCallback(data string) (appmodels.CallbackData, error) {
	var cb appmodels.CallbackData
	err := json.Unmarshal([]byte(data), &cb)
	return cb, err
}
