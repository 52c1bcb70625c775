// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package text turns documents into attribution-ready token tensors using
// tiktoken BPE encodings, including word-level feature masks that group the
// subword tokens of one word into a single feature.
package text

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/born-ml/lens/tensor"
)

// Encoder wraps a tiktoken BPE encoding.
type Encoder struct {
	enc *tiktoken.Tiktoken
}

// NewEncoder creates an encoder by encoding name, e.g. "cl100k_base".
func NewEncoder(encoding string) (*Encoder, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("text: loading encoding %q: %w", encoding, err)
	}
	return &Encoder{enc: enc}, nil
}

// NewEncoderForModel creates an encoder for a model name, e.g. "gpt-4".
func NewEncoderForModel(model string) (*Encoder, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, fmt.Errorf("text: loading encoding for model %q: %w", model, err)
	}
	return &Encoder{enc: enc}, nil
}

// Encode returns the token ids of a document.
func (e *Encoder) Encode(doc string) []int {
	return e.enc.Encode(doc, nil, nil)
}

// Decode returns the text of a token sequence.
func (e *Encoder) Decode(tokens []int) string {
	return e.enc.Decode(tokens)
}

// EncodeBatch encodes documents into an int64 token tensor of shape
// (len(docs), maxLen), truncating long documents and padding short ones
// with zeros.
func (e *Encoder) EncodeBatch(docs []string, maxLen int) (*tensor.RawTensor, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("text: no documents given")
	}
	if maxLen <= 0 {
		return nil, fmt.Errorf("text: maxLen must be positive, got %d", maxLen)
	}
	data := make([]int64, len(docs)*maxLen)
	for i, doc := range docs {
		tokens := e.enc.Encode(doc, nil, nil)
		for j := 0; j < maxLen && j < len(tokens); j++ {
			data[i*maxLen+j] = int64(tokens[j])
		}
	}
	return tensor.RawFromSlice(data, tensor.Shape{len(docs), maxLen})
}

// WordMask builds an int64 feature mask of shape (1, maxLen) for a document
// encoded with EncodeBatch: all subword tokens of the same
// whitespace-delimited word share a group id, and padding positions share
// one trailing group of their own.
func (e *Encoder) WordMask(doc string, maxLen int) (*tensor.RawTensor, error) {
	if maxLen <= 0 {
		return nil, fmt.Errorf("text: maxLen must be positive, got %d", maxLen)
	}
	words := strings.Fields(doc)
	ids := make([]int64, 0, maxLen)
	for w, word := range words {
		piece := word
		if w > 0 {
			piece = " " + word
		}
		for range e.enc.Encode(piece, nil, nil) {
			if len(ids) == maxLen {
				break
			}
			ids = append(ids, int64(w))
		}
	}
	pad := int64(len(words))
	for len(ids) < maxLen {
		ids = append(ids, pad)
	}
	return tensor.RawFromSlice(ids, tensor.Shape{1, maxLen})
}
