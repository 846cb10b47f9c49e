// Package ocr recognizes text on rendered page images with Tesseract via
// gosseract. Tesseract must be installed on the host.
package ocr

import (
	"fmt"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// Recognizer turns a page image into text.
type Recognizer interface {
	Recognize(imagePNG []byte) (string, error)
}

// Client wraps Tesseract. A gosseract client is not safe for concurrent use,
// so calls are serialized.
type Client struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// New creates a client for the given language ("eng", "eng+fra", ...).
// The client should be closed when no longer needed.
func New(language string) (*Client, error) {
	client := gosseract.NewClient()
	if language != "" {
		if err := client.SetLanguage(language); err != nil {
			client.Close()
			return nil, fmt.Errorf("set ocr language: %w", err)
		}
	}
	return &Client{client: client}, nil
}

// Close releases OCR resources.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Recognize performs OCR on PNG bytes and returns the trimmed text.
func (c *Client) Recognize(imagePNG []byte) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.client.SetImageFromBytes(imagePNG); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}
	text, err := c.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}
