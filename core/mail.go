package core

import (
	"bytes"
	"encoding/base64"
	htmltmpl "html/template"
	"io"
	"io/fs"
	"net/http"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"

	appfs "github.com/mrhat05/Doubtroom/fs"
)

const emailTemplatesDir = "templates/email"

var (
	emailTemplates     map[string]*emailTemplate
	emailTemplatesErr  error
	emailTemplatesOnce sync.Once
)

type (
	// emailTemplate is the text and html renditions of one email. Either may be missing.
	emailTemplate struct {
		text *texttmpl.Template
		html *htmltmpl.Template
	}

	Attachment struct {
		Content     *bytes.Buffer // base64 encoded
		ContentType string
		Filename    string
	}

	EmailMessage struct {
		To          []mail.Address
		Cc          []mail.Address
		Bcc         []mail.Address
		Subject     string
		BodyStr     string // plain text, used instead of a template
		Attachments []Attachment

		TemplateName string // file name under templates/email, without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	// ContextData is what email templates are executed with.
	ContextData struct {
		AppName         string
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

// Render fills TextContent and HTMLContent from BodyStr or the message's template.
func (m *EmailMessage) Render() error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
	}
	if m.TemplateName == "" {
		return nil
	}

	emailTemplatesOnce.Do(func() {
		emailTemplates, emailTemplatesErr = loadEmailTemplates(appfs.FS)
	})
	if emailTemplatesErr != nil {
		return emailTemplatesErr
	}
	tmpl, ok := emailTemplates[m.TemplateName]
	if !ok {
		return errors.Errorf("unknown email template %q", m.TemplateName)
	}

	data := ContextData{AppName: Conf.AppName, FrontendBaseURL: Conf.FrontendBaseURL, Data: m.TemplateData}
	var buff bytes.Buffer
	if tmpl.text != nil && m.BodyStr == "" {
		if err := tmpl.text.Execute(&buff, data); err != nil {
			return errors.Wrapf(err, "rendering %s.txt", m.TemplateName)
		}
		m.TextContent = strings.TrimSpace(buff.String())
	}
	if tmpl.html != nil {
		buff.Reset()
		if err := tmpl.html.Execute(&buff, data); err != nil {
			return errors.Wrapf(err, "rendering %s.gohtml", m.TemplateName)
		}
		m.HTMLContent = strings.TrimSpace(buff.String())
	}
	return nil
}

// Attach base64 encodes the content of r and adds it to the message's attachments.
// The content type is sniffed when not provided.
func (m *EmailMessage) Attach(r io.Reader, filename string, ct ...string) error {
	content, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	at := Attachment{Filename: filename, Content: new(bytes.Buffer)}
	enc := base64.NewEncoder(base64.StdEncoding, at.Content)
	if _, err = enc.Write(content); err != nil {
		return err
	}
	if err = enc.Close(); err != nil {
		return err
	}

	at.ContentType = http.DetectContentType(content)
	if len(ct) > 0 {
		at.ContentType = ct[0]
	}
	m.Attachments = append(m.Attachments, at)
	return nil
}

func (m *EmailMessage) HasRecipients() bool  { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool     { return m.TextContent != "" || m.HTMLContent != "" }
func (m *EmailMessage) HasAttachments() bool { return len(m.Attachments) > 0 }

// loadEmailTemplates parses every `<name>.txt` and `<name>.gohtml` of dir along with its `_base` layout.
func loadEmailTemplates(fsys fs.FS) (map[string]*emailTemplate, error) {
	fps, err := fs.Glob(fsys, path.Join(emailTemplatesDir, "*"))
	if err != nil {
		return nil, errors.Wrap(err, "listing email templates")
	}

	strict := Conf.Debug || Conf.TestMode
	tmpls := make(map[string]*emailTemplate)
	for _, fp := range fps {
		fname := path.Base(fp)
		ext := path.Ext(fname)
		if strings.HasPrefix(fname, "_") {
			continue
		}
		name := strings.TrimSuffix(fname, ext)
		base := path.Join(emailTemplatesDir, "_base"+ext)

		tmpl, ok := tmpls[name]
		if !ok {
			tmpl = new(emailTemplate)
		}
		switch ext {
		case ".txt":
			if tmpl.text, err = texttmpl.ParseFS(fsys, fp, base); err != nil {
				return nil, errors.Wrapf(err, "parsing %s", fname)
			}
			if strict {
				tmpl.text = tmpl.text.Option("missingkey=error")
			}
		case ".gohtml":
			if tmpl.html, err = htmltmpl.ParseFS(fsys, fp, base); err != nil {
				return nil, errors.Wrapf(err, "parsing %s", fname)
			}
			if strict {
				tmpl.html = tmpl.html.Option("missingkey=error")
			}
		default:
			continue
		}
		tmpls[name] = tmpl
	}
	return tmpls, nil
}
