package pipeline

import (
	"context"
	"errors"
)

// mockLoader resolves references from a fixed map.
type mockLoader struct {
	images map[string]string
	calls  []string
}

func (m *mockLoader) Base64(ref string) (string, error) {
	m.calls = append(m.calls, ref)
	b64, ok := m.images[ref]
	if !ok {
		return "", errors.New("image not found")
	}
	return b64, nil
}

// mockTranscriber returns Text for every image and records what it saw.
type mockTranscriber struct {
	Text   string
	Err    error
	Images []string
}

func (m *mockTranscriber) Transcribe(_ context.Context, imageB64 string) (string, error) {
	m.Images = append(m.Images, imageB64)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Text, nil
}

// mockProducers returns canned outputs. Revisions are handed out in order and
// the last one repeats once they run out.
type mockProducers struct {
	Outline   Outline
	Markdown  string
	Meta      Metadata
	Code      string
	Revisions []string

	// FailOn names the producer that returns Err.
	FailOn string
	Err    error

	Calls          []string
	ReviseFeedback []string
	ReviseInputs   []string

	// OnCall runs before every producer call.
	OnCall func(name string)
}

func (m *mockProducers) call(name string) error {
	m.Calls = append(m.Calls, name)
	if m.OnCall != nil {
		m.OnCall(name)
	}
	if m.FailOn == name {
		return m.Err
	}
	return nil
}

func (m *mockProducers) ThemeOutline(_ context.Context, _ string) (Outline, error) {
	if err := m.call("outline"); err != nil {
		return Outline{}, err
	}
	return m.Outline, nil
}

func (m *mockProducers) Draft(_ context.Context, _, _ string, _ []string) (string, error) {
	if err := m.call("draft"); err != nil {
		return "", err
	}
	return m.Markdown, nil
}

func (m *mockProducers) Metadata(_ context.Context, _, _ string) (Metadata, error) {
	if err := m.call("metadata"); err != nil {
		return Metadata{}, err
	}
	return m.Meta, nil
}

func (m *mockProducers) Component(_ context.Context, _ string) (string, error) {
	if err := m.call("component"); err != nil {
		return "", err
	}
	return m.Code, nil
}

func (m *mockProducers) Revise(_ context.Context, feedback, component string) (string, error) {
	m.ReviseFeedback = append(m.ReviseFeedback, feedback)
	m.ReviseInputs = append(m.ReviseInputs, component)
	if err := m.call("revise"); err != nil {
		return "", err
	}
	if len(m.Revisions) == 0 {
		return component, nil
	}
	n := len(m.ReviseInputs) - 1
	if n >= len(m.Revisions) {
		n = len(m.Revisions) - 1
	}
	return m.Revisions[n], nil
}

type savedFile struct {
	Name    string
	Content string
	Subdir  string
}

// mockStore records every write.
type mockStore struct {
	Saved []savedFile
	Err   error
}

func (m *mockStore) SaveOutput(filename, content, subdir string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	m.Saved = append(m.Saved, savedFile{Name: filename, Content: content, Subdir: subdir})
	return subdir + "/" + filename, nil
}

func (m *mockStore) count(name string) int {
	n := 0
	for _, f := range m.Saved {
		if f.Name == name {
			n++
		}
	}
	return n
}

func (m *mockStore) last(name string) (savedFile, bool) {
	for i := len(m.Saved) - 1; i >= 0; i-- {
		if m.Saved[i].Name == name {
			return m.Saved[i], true
		}
	}
	return savedFile{}, false
}
