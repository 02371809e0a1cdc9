package local

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
)

// sapiStrategy drives Windows SAPI5 via OLE. SAPI writes wav directly.
type sapiStrategy struct {
	mu sync.Mutex
}

func (s *sapiStrategy) name() string { return "sapi" }

func (s *sapiStrategy) available() bool {
	return runtime.GOOS == "windows"
}

func (s *sapiStrategy) attempt(ctx context.Context, text, languageCode, outputPath string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ole.CoInitialize(0); err != nil {
		// Already initialized
	} else {
		defer ole.CoUninitialize()
	}

	unknown, err := oleutil.CreateObject("SAPI.SpVoice")
	if err != nil {
		return "", fmt.Errorf("failed to create SAPI.SpVoice: %w", err)
	}
	voice, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		unknown.Release()
		return "", fmt.Errorf("QueryInterface SpVoice failed: %w", err)
	}
	defer voice.Release()

	s.selectVoiceForLanguage(voice, languageCode)

	unknownStream, err := oleutil.CreateObject("SAPI.SpFileStream")
	if err != nil {
		return "", fmt.Errorf("failed to create SAPI.SpFileStream: %w", err)
	}
	stream, err := unknownStream.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		unknownStream.Release()
		return "", fmt.Errorf("QueryInterface SpFileStream failed: %w", err)
	}
	defer stream.Release()

	wavPath := outputPath + ".wav"
	if _, err = oleutil.CallMethod(stream, "Open", wavPath, 3, false); err != nil {
		return "", fmt.Errorf("stream Open failed: %w", err)
	}
	defer func() {
		_, _ = oleutil.CallMethod(stream, "Close")
	}()

	if _, err = oleutil.PutPropertyRef(voice, "AudioOutputStream", stream); err != nil {
		return "", fmt.Errorf("failed to set AudioOutputStream: %w", err)
	}

	if _, err = oleutil.CallMethod(voice, "Speak", text, 0); err != nil {
		return "", fmt.Errorf("Speak failed: %w", err)
	}

	return "wav", nil
}

// selectVoiceForLanguage picks the first installed voice whose description
// mentions the requested language. Best effort, the default voice stays
// active when nothing matches.
func (s *sapiStrategy) selectVoiceForLanguage(voice *ole.IDispatch, languageCode string) {
	lang := baseLanguage(languageCode)
	if lang == "" {
		return
	}

	tokensVar, err := oleutil.CallMethod(voice, "GetVoices", "", "")
	if err != nil {
		return
	}
	tokens := tokensVar.ToIDispatch()
	if tokens == nil {
		return
	}
	defer tokens.Release()

	_ = oleutil.ForEach(tokens, func(v *ole.VARIANT) error {
		item := v.ToIDispatch()
		if item == nil {
			return nil
		}
		defer item.Release()
		descVar, _ := oleutil.CallMethod(item, "GetDescription", int32(0))
		if descVar != nil && strings.Contains(strings.ToLower(descVar.ToString()), lang) {
			_, _ = oleutil.PutPropertyRef(voice, "Voice", item)
		}
		return nil
	})
}
