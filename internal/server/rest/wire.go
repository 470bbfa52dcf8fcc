package rest

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/beanfeed/internal/bean"
	"github.com/dmitrijs2005/beanfeed/internal/common"
	"github.com/dmitrijs2005/beanfeed/internal/feed"
	"github.com/dmitrijs2005/beanfeed/internal/transport"
	"github.com/gin-gonic/gin"
)

// Transport holds the body coding settings of a resource.
type Transport struct {
	// Preferred is the response coding used when the client accepts it.
	Preferred transport.Encoding
	// MaxBodyBytes bounds request bodies after decoding. Zero means no
	// limit.
	MaxBodyBytes int64
}

// readBody returns the decoded request body.
func (t Transport) readBody(c *gin.Context) ([]byte, error) {
	enc, err := transport.ParseEncoding(c.GetHeader("Content-Encoding"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedRequest, err)
	}

	var src = c.Request.Body
	if t.MaxBodyBytes > 0 {
		src = http.MaxBytesReader(c.Writer, src, t.MaxBodyBytes)
	}
	r, err := transport.NewReader(src, enc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedRequest, err)
	}
	defer r.Close()

	data, err := transport.ReadAll(r, t.MaxBodyBytes)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || errors.Is(err, transport.ErrTooLarge) {
			return nil, transport.ErrTooLarge
		}
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedRequest, err)
	}
	return data, nil
}

// write sends body with the coding negotiated from Accept-Encoding.
func (t Transport) write(c *gin.Context, status int, contentType string, body []byte) {
	enc := transport.Negotiate(c.GetHeader("Accept-Encoding"), t.Preferred)
	data, err := transport.Compress(body, enc)
	if err != nil {
		enc, data = transport.Identity, body
	}
	c.Header("Vary", "Accept-Encoding")
	if enc != transport.Identity {
		c.Header("Content-Encoding", string(enc))
	}
	c.Data(status, contentType, data)
}

func (t Transport) writeEntry(c *gin.Context, status int, e *feed.Entry) error {
	var buf bytes.Buffer
	if err := feed.WriteEntry(&buf, e); err != nil {
		return err
	}
	if e.Token != "" {
		c.Header(common.ETagHeaderName, bean.Token(e.Token).ETag())
	}
	t.write(c, status, common.EntryContentType, buf.Bytes())
	return nil
}

func (t Transport) writeFeed(c *gin.Context, status int, f *feed.Feed) error {
	var buf bytes.Buffer
	if err := feed.WriteFeed(&buf, f); err != nil {
		return err
	}
	t.write(c, status, common.FeedContentType, buf.Bytes())
	return nil
}

func (t Transport) writeError(c *gin.Context, err error) {
	c.Error(err)
	t.write(c, StatusOf(err), "text/plain; charset=utf-8", []byte(messageOf(err)))
}
