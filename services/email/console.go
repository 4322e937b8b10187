package emailsvc

import (
	"fmt"
	"log"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/mrhat05/Doubtroom/core"
)

// outbox keeps every message rendered by a console service.
var outbox = struct {
	sync.Mutex
	messages []core.EmailMessage
}{}

// SentMessages returns a copy of the messages sent so far.
func SentMessages() []core.EmailMessage {
	outbox.Lock()
	defer outbox.Unlock()
	msgs := make([]core.EmailMessage, len(outbox.messages))
	copy(msgs, outbox.messages)
	return msgs
}

// LastMessageTo returns the latest message sent to addr.
func LastMessageTo(addr string) (core.EmailMessage, bool) {
	outbox.Lock()
	defer outbox.Unlock()
	for i := len(outbox.messages) - 1; i >= 0; i-- {
		for _, to := range outbox.messages[i].To {
			if strings.EqualFold(to.Address, addr) {
				return outbox.messages[i], true
			}
		}
	}
	return core.EmailMessage{}, false
}

type consoleService struct {
	from          mail.Address
	subjPrefix    string
	disableOutput bool
	sync          bool
}

var _ core.EmailService = (*consoleService)(nil)

// NewConsoleService prints emails to the standard logger instead of sending them.
func NewConsoleService() core.EmailService {
	return &consoleService{
		from:       core.Conf.DefaultFromEmail(),
		subjPrefix: "[" + core.Conf.AppName + "] ",
	}
}

// NewConsoleServiceMock sends synchronously and silently.
func NewConsoleServiceMock() core.EmailService {
	return &consoleService{
		from:          core.Conf.DefaultFromEmail(),
		subjPrefix:    "[" + core.Conf.AppName + "] ",
		disableOutput: true,
		sync:          true,
	}
}

func (svc consoleService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		if svc.sync {
			svc.sendMessage(msg)
		} else {
			go svc.sendMessage(msg)
		}
	}
}

func (svc consoleService) sendMessage(msg *core.EmailMessage) {
	if err := msg.Render(); err != nil {
		log.Fatalf("%+v", errors.Wrap(err, "rendering email"))
	}
	if !msg.HasRecipients() || !(msg.HasContent() || msg.HasAttachments()) {
		return
	}
	body := svc.format(*msg)
	if !svc.disableOutput {
		log.Println(body)
	}
	outbox.Lock()
	outbox.messages = append(outbox.messages, *msg)
	outbox.Unlock()
}

// format lays the message out as a MIME document.
func (svc consoleService) format(msg core.EmailMessage) string {
	body := new(strings.Builder)
	headers := [][2]string{
		{"From", svc.from.String()},
		{"MIME-Version", "1.0"},
		{"Date", time.Now().Format(time.RFC1123Z)},
		{"Subject", svc.subjPrefix + msg.Subject},
		{"To", joinAddresses(msg.To)},
		{"CC", joinAddresses(msg.Cc)},
		{"BCC", joinAddresses(msg.Bcc)},
	}
	for _, h := range headers {
		_, _ = fmt.Fprintf(body, "%s: %s\r\n", h[0], h[1])
	}

	altW := multipart.NewWriter(body)
	var mixedW *multipart.Writer
	if msg.HasAttachments() {
		mixedW = multipart.NewWriter(body)
		_, _ = fmt.Fprintf(body, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", mixedW.Boundary())
		if _, err := mixedW.CreatePart(textproto.MIMEHeader{"Content-Type": {"multipart/alternative; boundary=" + altW.Boundary()}}); err != nil {
			log.Fatalf("%+v", errors.Wrap(err, "creating multipart/alternative part"))
		}
	} else {
		_, _ = fmt.Fprintf(body, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", altW.Boundary())
	}

	writePart(altW, "text/plain", msg.TextContent)
	if msg.HTMLContent != "" {
		writePart(altW, "text/html", msg.HTMLContent)
	}
	_ = altW.Close()

	if mixedW != nil {
		for _, at := range msg.Attachments {
			w, err := mixedW.CreatePart(textproto.MIMEHeader{
				"Content-Type":              {at.ContentType},
				"Content-Transfer-Encoding": {"base64"},
				"Content-Disposition":       {"attachment; filename=" + at.Filename},
			})
			if err != nil {
				log.Fatalf("%+v", errors.Wrap(err, "creating "+at.ContentType+" part"))
			}
			_, _ = fmt.Fprintf(w, "%s\r\n", at.Content.String())
		}
		_ = mixedW.Close()
	}
	return body.String()
}

func writePart(w *multipart.Writer, contentType, content string) {
	pw, err := w.CreatePart(textproto.MIMEHeader{"Content-Type": {contentType}})
	if err != nil {
		log.Fatalf("%+v", errors.Wrap(err, "creating "+contentType+" part"))
	}
	_, _ = fmt.Fprintf(pw, "%s\r\n", content)
}

func joinAddresses(addrs []mail.Address) string {
	toJoin := make([]string, 0, len(addrs))
	for _, a := range addrs {
		toJoin = append(toJoin, a.String())
	}
	return strings.Join(toJoin, ", ")
}
