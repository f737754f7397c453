package pdf

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConvert_EngineUnavailable(t *testing.T) {
	c := NewConverter("libreoffice-missing", time.Second)
	c.lookPath = func(string) (string, error) { return "", exec.ErrNotFound }

	_, err := c.Convert(context.Background(), "/tmp/x.docx", "")
	assert.True(t, errors.Is(err, ErrEngineUnavailable))
}

func TestNewConverter_Defaults(t *testing.T) {
	c := NewConverter("", 0)
	assert.Equal(t, "libreoffice", c.binary)
	assert.Equal(t, 90*time.Second, c.timeout)
}
