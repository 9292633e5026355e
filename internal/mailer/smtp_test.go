package mailer

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/webanalyzer/webanalyzer/internal/analyzer"
	"github.com/webanalyzer/webanalyzer/internal/config"
)

// fakeRelay is a single-session SMTP server that records the DATA payload.
type fakeRelay struct {
	ln   net.Listener
	data chan string
}

func newFakeRelay(t *testing.T) *fakeRelay {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	r := &fakeRelay{ln: ln, data: make(chan string, 1)}
	go r.serve()
	return r
}

func (r *fakeRelay) addr() (string, int) {
	tcp := r.ln.Addr().(*net.TCPAddr)
	return tcp.IP.String(), tcp.Port
}

func (r *fakeRelay) serve() {
	conn, err := r.ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	br := bufio.NewReader(conn)
	write := func(line string) { conn.Write([]byte(line + "\r\n")) }

	write("220 fake relay")
	var payload strings.Builder
	inData := false
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return
		}
		if inData {
			if strings.TrimRight(line, "\r\n") == "." {
				inData = false
				r.data <- payload.String()
				write("250 queued")
				continue
			}
			payload.WriteString(line)
			continue
		}
		switch {
		case strings.HasPrefix(line, "EHLO"), strings.HasPrefix(line, "HELO"):
			write("250 fake")
		case strings.HasPrefix(line, "MAIL"), strings.HasPrefix(line, "RCPT"):
			write("250 ok")
		case strings.HasPrefix(line, "DATA"):
			inData = true
			write("354 go ahead")
		case strings.HasPrefix(line, "QUIT"):
			write("221 bye")
			return
		default:
			write("250 ok")
		}
	}
}

func testMailer(t *testing.T, relay *fakeRelay) *SMTP {
	t.Helper()

	host, port := relay.addr()
	return New(config.SMTPConfig{
		Host:     host,
		Port:     port,
		From:     "reports@webanalyzer.local",
		FromName: "WebAnalyzer",
		UseTLS:   false,
	}, zaptest.NewLogger(t))
}

func TestSend_PlainText(t *testing.T) {
	relay := newFakeRelay(t)
	m := testMailer(t, relay)

	err := m.Send(context.Background(), "user@example.com", "Your Website Analysis Report", "hello")
	require.NoError(t, err)

	payload := <-relay.data
	require.Contains(t, payload, "From: WebAnalyzer <reports@webanalyzer.local>")
	require.Contains(t, payload, "To: user@example.com")
	require.Contains(t, payload, "Subject: Your Website Analysis Report")
	require.Contains(t, payload, encodeBase64WithLineBreaks("hello"))
}

func TestSendWithAttachment_MultipartMixed(t *testing.T) {
	relay := newFakeRelay(t)
	m := testMailer(t, relay)

	att := analyzer.Attachment{
		Filename:    "report_userexamplecom_20250601_120000.pdf",
		ContentType: "application/pdf",
		Content:     []byte("%PDF-1.4 fake"),
	}
	err := m.SendWithAttachment(context.Background(), "user@example.com", "Your Report (PDF)", "see attached", att)
	require.NoError(t, err)

	payload := <-relay.data
	require.Contains(t, payload, "Content-Type: multipart/mixed; boundary=")
	require.Contains(t, payload, `Content-Disposition: attachment; filename="report_userexamplecom_20250601_120000.pdf"`)
	require.Contains(t, payload, "Content-Type: application/pdf")
	require.Contains(t, payload, encodeBase64WithLineBreaks("%PDF-1.4 fake"))
}

func TestSubmit_RequiresConfiguration(t *testing.T) {
	t.Parallel()

	m := New(config.SMTPConfig{}, zaptest.NewLogger(t))
	err := m.Send(context.Background(), "user@example.com", "x", "y")
	require.ErrorContains(t, err, "smtp host not configured")
}

func TestSubmit_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := New(config.SMTPConfig{Host: "relay.invalid", Port: 25, From: "a@b"}, zaptest.NewLogger(t))
	err := m.Send(ctx, "user@example.com", "x", "y")
	require.ErrorIs(t, err, context.Canceled)
}

func TestEncodeBase64WithLineBreaks_WrapsAt76(t *testing.T) {
	t.Parallel()

	encoded := encodeBase64WithLineBreaks(strings.Repeat("a", 500))
	for _, line := range strings.Split(encoded, "\r\n") {
		require.LessOrEqual(t, len(line), 76)
	}
}
