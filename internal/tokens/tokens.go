// Package tokens estimates prompt sizes for the status bar
package tokens

import (
	"log"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

var (
	codec     tokenizer.Codec
	codecOnce sync.Once
	codecErr  error
)

func getCodec() (tokenizer.Codec, error) {
	codecOnce.Do(func() {
		codec, codecErr = tokenizer.Get(tokenizer.Cl100kBase)
		if codecErr != nil {
			log.Printf("Token codec unavailable, estimating by length: %v", codecErr)
		}
	})
	return codec, codecErr
}

// Count returns the cl100k_base token count of text. When the codec cannot
// be loaded or fails on the input it falls back to len(text)/4.
func Count(text string) int {
	if text == "" {
		return 0
	}
	c, err := getCodec()
	if err != nil {
		return estimate(text)
	}
	ids, _, err := c.Encode(text)
	if err != nil {
		return estimate(text)
	}
	return len(ids)
}

func estimate(text string) int {
	n := len(text) / 4
	if n == 0 {
		n = 1
	}
	return n
}
