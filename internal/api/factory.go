package api

import (
	"fmt"
	"strings"
)

// NewClientFromCredentials creates a client for collection, or an error when
// no token is available.
func NewClientFromCredentials(collection, token string, opts ...ClientOption) (RecordAPI, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("no API token configured (run: braindump auth login)")
	}
	return NewClient(collection, token, opts...), nil
}
