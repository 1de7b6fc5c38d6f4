package client

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrUnavailable = errors.New("server unavailable")
	ErrNotLoggedIn = errors.New("not logged in")
)

// mapError turns a status error back into the auth error it came from.
// Status messages start with the error kind label.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded:
		if kindErr := fromMessage(st.Message()); kindErr != nil {
			return kindErr
		}
		return ErrUnavailable
	}

	if kindErr := fromMessage(st.Message()); kindErr != nil {
		if detail := detailOf(st.Message()); detail != "" {
			return fmt.Errorf("%w: %s", kindErr, detail)
		}
		return kindErr
	}
	return fmt.Errorf("rpc error: %w", err)
}

func fromMessage(msg string) error {
	kind, _ := splitMessage(msg)
	return common.FromKind(kind)
}

func detailOf(msg string) string {
	_, detail := splitMessage(msg)
	return detail
}

func splitMessage(msg string) (kind, detail string) {
	kind, detail, _ = strings.Cut(msg, ": ")
	return kind, detail
}
