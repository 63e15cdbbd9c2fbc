package gmail

import (
	"encoding/base64"
	"mime"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
	gmail_api "google.golang.org/api/gmail/v1"

	"mailtriage/internal/model"
)

const noSubject = "No Subject"

// parseMessage converts a Gmail message fetched with format=full into an
// EmailRecord. The body is the first text/plain part, or the snippet when the
// message has none.
func parseMessage(msg *gmail_api.Message) model.EmailRecord {
	rec := model.EmailRecord{ID: msg.Id, Subject: noSubject}
	if msg.Payload == nil {
		rec.Body = msg.Snippet
		return rec
	}

	for _, h := range msg.Payload.Headers {
		if strings.EqualFold(h.Name, "Subject") && h.Value != "" {
			rec.Subject = h.Value
			break
		}
	}

	rec.Body = plainTextBody(msg.Payload)
	if strings.TrimSpace(rec.Body) == "" {
		rec.Body = msg.Snippet
	}
	return rec
}

func plainTextBody(part *gmail_api.MessagePart) string {
	mime := strings.ToLower(part.MimeType)
	if mime == "text/plain" && part.Body != nil && part.Body.Data != "" {
		if data, ok := decodeBase64URL(part.Body.Data); ok {
			return toUTF8(data, partCharset(part))
		}
	}
	for _, p := range part.Parts {
		if body := plainTextBody(p); body != "" {
			return body
		}
	}
	return ""
}

// decodeBase64URL accepts both padded and unpadded base64url, Gmail uses either.
func decodeBase64URL(s string) (string, bool) {
	if b, err := base64.URLEncoding.DecodeString(s); err == nil {
		return string(b), true
	}
	if b, err := base64.RawURLEncoding.DecodeString(s); err == nil {
		return string(b), true
	}
	return "", false
}

// partCharset returns the charset parameter of the part's Content-Type header.
func partCharset(part *gmail_api.MessagePart) string {
	for _, h := range part.Headers {
		if !strings.EqualFold(h.Name, "Content-Type") {
			continue
		}
		_, params, err := mime.ParseMediaType(h.Value)
		if err != nil {
			return ""
		}
		return params["charset"]
	}
	return ""
}

// toUTF8 converts data from charset to UTF-8. Unknown charsets and bytes that
// still do not decode are replaced with U+FFFD.
func toUTF8(data, charset string) string {
	if charset != "" {
		if enc, err := htmlindex.Get(charset); err == nil {
			if out, err := enc.NewDecoder().String(data); err == nil {
				data = out
			}
		}
	}
	if !utf8.ValidString(data) {
		data = strings.ToValidUTF8(data, "\uFFFD")
	}
	return data
}
