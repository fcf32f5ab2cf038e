package mail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// compose renders msg as an RFC 5322 message. HTML bodies get a plain
// text alternative; attachments wrap everything in multipart/mixed.
func compose(from string, msg *Message, now time.Time) ([]byte, error) {
	var buf bytes.Buffer

	header := textproto.MIMEHeader{}
	header.Set("From", from)
	header.Set("To", strings.Join(msg.To, ", "))
	if len(msg.Cc) > 0 {
		header.Set("Cc", strings.Join(msg.Cc, ", "))
	}
	if msg.ReplyTo != "" {
		header.Set("Reply-To", msg.ReplyTo)
	}
	header.Set("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	header.Set("Date", now.Format(time.RFC1123Z))
	header.Set("Message-ID", messageID(from, now))
	header.Set("MIME-Version", "1.0")

	ct, cte, body, err := renderBody(msg)
	if err != nil {
		return nil, err
	}

	if len(msg.Attachments) == 0 {
		header.Set("Content-Type", ct)
		header.Set("Content-Transfer-Encoding", cte)
		writeHeader(&buf, header)
		buf.Write(body)
		return buf.Bytes(), nil
	}

	mixed := multipart.NewWriter(&buf)
	header.Set("Content-Type", "multipart/mixed; boundary="+mixed.Boundary())
	writeHeader(&buf, header)

	bodyHeader := textproto.MIMEHeader{}
	bodyHeader.Set("Content-Type", ct)
	if cte != "" {
		bodyHeader.Set("Content-Transfer-Encoding", cte)
	}
	part, err := mixed.CreatePart(bodyHeader)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(body); err != nil {
		return nil, err
	}

	for _, a := range msg.Attachments {
		ct := a.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h := textproto.MIMEHeader{}
		h.Set("Content-Type", mime.FormatMediaType(ct, map[string]string{"name": a.FileName}))
		h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.FileName}))
		h.Set("Content-Transfer-Encoding", "base64")
		w, err := mixed.CreatePart(h)
		if err != nil {
			return nil, err
		}
		if err := writeBase64(w, a.Data); err != nil {
			return nil, err
		}
	}
	if err := mixed.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderBody encodes the text body, or a text/html alternative pair when
// HTML is set. cte is empty for multipart bodies.
func renderBody(msg *Message) (ct, cte string, body []byte, err error) {
	var buf bytes.Buffer
	if msg.HTML == "" {
		if err := writeQuoted(&buf, msg.Text); err != nil {
			return "", "", nil, err
		}
		return "text/plain; charset=utf-8", "quoted-printable", buf.Bytes(), nil
	}

	alt := multipart.NewWriter(&buf)
	for _, p := range []struct{ ct, body string }{
		{"text/plain; charset=utf-8", msg.Text},
		{"text/html; charset=utf-8", msg.HTML},
	} {
		h := textproto.MIMEHeader{}
		h.Set("Content-Type", p.ct)
		h.Set("Content-Transfer-Encoding", "quoted-printable")
		w, err := alt.CreatePart(h)
		if err != nil {
			return "", "", nil, err
		}
		if err := writeQuoted(w, p.body); err != nil {
			return "", "", nil, err
		}
	}
	if err := alt.Close(); err != nil {
		return "", "", nil, err
	}
	return "multipart/alternative; boundary=" + alt.Boundary(), "", buf.Bytes(), nil
}

func writeHeader(buf *bytes.Buffer, header textproto.MIMEHeader) {
	for _, k := range []string{"From", "To", "Cc", "Reply-To", "Subject", "Date", "Message-ID", "MIME-Version", "Content-Type", "Content-Transfer-Encoding"} {
		if v := header.Get(k); v != "" {
			fmt.Fprintf(buf, "%s: %s\r\n", k, v)
		}
	}
	buf.WriteString("\r\n")
}

func writeQuoted(w io.Writer, s string) error {
	qp := quotedprintable.NewWriter(w)
	if _, err := qp.Write([]byte(s)); err != nil {
		return err
	}
	return qp.Close()
}

// writeBase64 wraps encoded data at 76 columns.
func writeBase64(w io.Writer, data []byte) error {
	enc := base64.StdEncoding.EncodeToString(data)
	for len(enc) > 76 {
		if _, err := fmt.Fprintf(w, "%s\r\n", enc[:76]); err != nil {
			return err
		}
		enc = enc[76:]
	}
	_, err := fmt.Fprintf(w, "%s\r\n", enc)
	return err
}

func messageID(from string, now time.Time) string {
	domain := "localhost"
	if at := strings.LastIndex(from, "@"); at >= 0 {
		domain = strings.TrimRight(from[at+1:], ">")
	}
	return fmt.Sprintf("<%s@%s>", ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()), domain)
}
