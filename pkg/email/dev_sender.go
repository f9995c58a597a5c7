package email

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9_\-]+`)

// DevSender writes emails to disk instead of sending them. Useful for local
// development and tests where no Postmark tokens exist.
type DevSender struct {
	dir string
}

// NewDevSender creates a filesystem-backed Sender writing into dir.
func NewDevSender(dir string) Sender {
	return &DevSender{dir: dir}
}

// Send saves the HTML body to a timestamped file in the configured directory.
func (d *DevSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("%w: create dir: %v", ErrFailedToSend, err)
	}

	identifier := msg.Tag
	if identifier == "" {
		identifier = msg.Subject
	}
	name := fmt.Sprintf("%s_%s.html",
		time.Now().Format("2006_01_02_150405"),
		strings.Trim(unsafeFilenameChars.ReplaceAllString(identifier, "_"), "_"),
	)

	if err := os.WriteFile(filepath.Join(d.dir, name), []byte(msg.BodyHTML), 0o644); err != nil {
		return fmt.Errorf("%w: write file: %v", ErrFailedToSend, err)
	}
	return nil
}
