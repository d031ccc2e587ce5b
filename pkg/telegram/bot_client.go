package telegram

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const telegramAPIBase = "https://api.telegram.org"

type BotClient struct {
	token      string
	httpClient *http.Client
}

type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

type Chat struct {
	ID int64 `json:"id"`
}

type replyKeyboardMarkup struct {
	Keyboard              [][]string `json:"keyboard"`
	ResizeKeyboard        bool       `json:"resize_keyboard"`
	OneTimeKeyboard       bool       `json:"one_time_keyboard"`
	InputFieldPlaceholder string     `json:"input_field_placeholder,omitempty"`
}

type sendMessageRequest struct {
	ChatID                int64                `json:"chat_id"`
	Text                  string               `json:"text"`
	ParseMode             string               `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool                 `json:"disable_web_page_preview,omitempty"`
	ReplyMarkup           *replyKeyboardMarkup `json:"reply_markup,omitempty"`
}

type telegramAPIResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func NewBotClient(token string, httpClient *http.Client) *BotClient {
	client := httpClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &BotClient{
		token:      strings.TrimSpace(token),
		httpClient: client,
	}
}

func (c *BotClient) Enabled() bool {
	return c != nil && strings.TrimSpace(c.token) != ""
}

func (c *BotClient) SendMessage(chatID int64, text string) error {
	return c.send(chatID, text, "", nil)
}

func (c *BotClient) SendMarkdown(chatID int64, md string) error {
	return c.send(chatID, md, "Markdown", nil)
}

func (c *BotClient) SendKeyboard(chatID int64, text string, rows [][]string, placeholder string) error {
	if len(rows) == 0 {
		return c.send(chatID, text, "", nil)
	}
	return c.send(chatID, text, "", &replyKeyboardMarkup{
		Keyboard:              rows,
		ResizeKeyboard:        true,
		InputFieldPlaceholder: placeholder,
	})
}

func (c *BotClient) send(chatID int64, text string, parseMode string, markup *replyKeyboardMarkup) error {
	if c == nil {
		return errors.New("telegram client is nil")
	}
	if strings.TrimSpace(c.token) == "" {
		return errors.New("telegram bot token is empty")
	}
	if chatID == 0 {
		return errors.New("chat id is required")
	}
	if strings.TrimSpace(text) == "" {
		return errors.New("message is empty")
	}

	body, err := json.Marshal(sendMessageRequest{
		ChatID:                chatID,
		Text:                  text,
		ParseMode:             parseMode,
		DisableWebPagePreview: true,
		ReplyMarkup:           markup,
	})
	if err != nil {
		return err
	}

	endpointURL, err := c.methodURL("sendMessage")
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, endpointURL.String(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

func (c *BotClient) SendPhoto(chatID int64, filename string, photo []byte, caption string) error {
	if c == nil {
		return errors.New("telegram client is nil")
	}
	if strings.TrimSpace(c.token) == "" {
		return errors.New("telegram bot token is empty")
	}
	if chatID == 0 {
		return errors.New("chat id is required")
	}
	if len(photo) == 0 {
		return errors.New("photo is empty")
	}
	if strings.TrimSpace(filename) == "" {
		filename = "photo.png"
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return err
	}
	if caption != "" {
		if err := writer.WriteField("caption", caption); err != nil {
			return err
		}
	}

	part, err := writer.CreateFormFile("photo", filename)
	if err != nil {
		return err
	}
	if _, err := part.Write(photo); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	endpointURL, err := c.methodURL("sendPhoto")
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, endpointURL.String(), &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.do(req)
}

func (c *BotClient) methodURL(method string) (*url.URL, error) {
	endpoint := fmt.Sprintf("%s/bot%s/%s", telegramAPIBase, url.PathEscape(c.token), method)
	endpointURL, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(endpointURL.Scheme, "https") || !strings.EqualFold(endpointURL.Host, "api.telegram.org") {
		return nil, errors.New("invalid telegram api endpoint")
	}
	return endpointURL, nil
}

func (c *BotClient) do(req *http.Request) error {
	// #nosec G107,G704 -- endpoint host/scheme are validated in methodURL.
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var apiResp telegramAPIResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&apiResp); decodeErr != nil {
		return decodeErr
	}

	if resp.StatusCode >= http.StatusBadRequest || !apiResp.OK {
		if apiResp.Description == "" {
			apiResp.Description = "telegram api request failed"
		}
		return fmt.Errorf("telegram api error: %s", apiResp.Description)
	}

	return nil
}
