// Package token loads the control plane bearer token and keeps it current.
package token

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/subosito/gotenv"
)

// GlobalTokenKey marks a token file in properties format.
const GlobalTokenKey = "K8S_GLOBAL_TOKEN"

// Load reads a token file. The file holds either the raw token or a
// properties file with a K8S_GLOBAL_TOKEN entry.
func Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w %s: %w", ErrReadToken, path, err)
	}

	return Parse(string(data))
}

// Parse extracts the token from file content.
func Parse(content string) (string, error) {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, GlobalTokenKey) {
		env, err := gotenv.StrictParse(strings.NewReader(content))
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrParseToken, err)
		}

		content = strings.TrimSpace(env[GlobalTokenKey])
	}

	if content == "" {
		return "", ErrEmptyToken
	}

	return content, nil
}

// Store holds the current token. It is safe for concurrent use.
type Store struct {
	current atomic.Pointer[string]
}

func NewStore(initial string) *Store {
	s := &Store{}
	s.Set(initial)

	return s
}

func (s *Store) Get() string {
	if p := s.current.Load(); p != nil {
		return *p
	}

	return ""
}

func (s *Store) Set(token string) {
	s.current.Store(&token)
}
