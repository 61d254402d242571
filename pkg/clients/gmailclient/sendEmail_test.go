package gmailclient

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildMessage(t *testing.T) {
	msg := BuildMessage("SPMB <spmb@example.sch.id>", "wali@example.com", "Hasil SPMB", "Selamat!")

	headers, body, found := strings.Cut(msg, "\r\n\r\n")
	assert.True(t, found)
	assert.Equal(t, "Selamat!", body)
	assert.Contains(t, headers, "From: SPMB <spmb@example.sch.id>\r\n")
	assert.Contains(t, headers, "To: wali@example.com\r\n")
	assert.Contains(t, headers, "Subject: Hasil SPMB\r\n")
	assert.Contains(t, headers, `Content-Type: text/plain; charset="UTF-8"`)
}

func TestBuildMessage_NoSender(t *testing.T) {
	msg := BuildMessage("", "wali@example.com", "Hasil", "body")
	assert.False(t, strings.HasPrefix(msg, "From:"))
	assert.True(t, strings.HasPrefix(msg, "To: wali@example.com"))
}

func TestBuildMessage_EncodesNonASCIISubject(t *testing.T) {
	msg := BuildMessage("", "wali@example.com", "Hasil seleksi – Zonasi", "body")
	assert.Contains(t, msg, "Subject: =?utf-8?q?")
}
