package feed

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMalformedDocument   = errors.New("feed: malformed document")
	ErrUndeclaredNamespace = errors.New("feed: undeclared namespace")
)

const timeLayout = time.RFC3339Nano

// WriteEntry writes e as a standalone entry document. Only a root entry
// declares its extension namespaces, so writing an embedded entry that
// carries extension fields fails with ErrUndeclaredNamespace.
func WriteEntry(w io.Writer, e *Entry) error {
	var scope NamespaceSet
	if e.Root {
		scope = e.Namespaces
	}
	enc := xml.NewEncoder(w)
	if err := writeEntry(enc, e, scope, true); err != nil {
		return err
	}
	return enc.Flush()
}

// WriteFeed writes f as a feed document. Every namespace used by any entry
// must be declared on the feed.
func WriteFeed(w io.Writer, f *Feed) error {
	enc := xml.NewEncoder(w)

	if err := enc.EncodeToken(startElement("feed", rootAttrs(f.Namespaces)...)); err != nil {
		return err
	}
	if err := textElement(enc, "id", f.ID); err != nil {
		return err
	}
	if err := textElement(enc, "title", f.Title); err != nil {
		return err
	}
	if err := timeElement(enc, "updated", f.Updated); err != nil {
		return err
	}
	for _, e := range f.Entries {
		if err := writeEntry(enc, e, f.Namespaces, false); err != nil {
			return err
		}
	}
	if err := enc.EncodeToken(endElement("feed")); err != nil {
		return err
	}
	return enc.Flush()
}

func writeEntry(enc *xml.Encoder, e *Entry, scope NamespaceSet, root bool) error {
	var attrs []xml.Attr
	if root {
		attrs = rootAttrs(scope)
	}
	if e.Token != "" {
		attrs = append(attrs, protocolAttr("etag", e.Token))
	}
	if e.Status != 0 {
		attrs = append(attrs, protocolAttr("status", strconv.Itoa(e.Status)))
	}
	if e.Error != "" {
		attrs = append(attrs, protocolAttr("error", e.Error))
	}

	if err := enc.EncodeToken(startElement("entry", attrs...)); err != nil {
		return err
	}
	if err := textElement(enc, "id", e.ID); err != nil {
		return err
	}
	if err := textElement(enc, "title", e.Title); err != nil {
		return err
	}
	if err := timeElement(enc, "published", e.Published); err != nil {
		return err
	}
	if err := timeElement(enc, "updated", e.Updated); err != nil {
		return err
	}
	for _, f := range e.Fields {
		ns, ok := scope.Lookup(f.Name.Space)
		if !ok {
			return fmt.Errorf("%w: %s (field %s)", ErrUndeclaredNamespace, f.Name.Space, f.Name.Local)
		}
		if err := textElement(enc, ns.Prefix+":"+f.Name.Local, f.Value); err != nil {
			return err
		}
	}
	return enc.EncodeToken(endElement("entry"))
}

func rootAttrs(ns NamespaceSet) []xml.Attr {
	attrs := []xml.Attr{
		{Name: xml.Name{Local: "xmlns"}, Value: AtomNamespace},
		{Name: xml.Name{Local: "xmlns:" + ProtocolPrefix}, Value: ProtocolNamespace},
	}
	for _, n := range ns.List() {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "xmlns:" + n.Prefix}, Value: n.URI})
	}
	return attrs
}

func protocolAttr(local, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: ProtocolPrefix + ":" + local}, Value: value}
}

func startElement(name string, attrs ...xml.Attr) xml.StartElement {
	return xml.StartElement{Name: xml.Name{Local: name}, Attr: attrs}
}

func endElement(name string) xml.EndElement {
	return xml.EndElement{Name: xml.Name{Local: name}}
}

// textElement writes <name>value</name>; empty values are omitted.
func textElement(enc *xml.Encoder, name, value string) error {
	if value == "" {
		return nil
	}
	if err := enc.EncodeToken(startElement(name)); err != nil {
		return err
	}
	if err := enc.EncodeToken(xml.CharData(value)); err != nil {
		return err
	}
	return enc.EncodeToken(endElement(name))
}

func timeElement(enc *xml.Encoder, name string, t time.Time) error {
	if t.IsZero() {
		return nil
	}
	return textElement(enc, name, t.UTC().Format(timeLayout))
}

// ReadEntry parses a standalone entry document. The returned entry is a
// root entry carrying the namespaces its fields use.
func ReadEntry(r io.Reader) (*Entry, error) {
	d := xml.NewDecoder(r)
	start, err := rootElement(d, "entry")
	if err != nil {
		return nil, err
	}
	e, err := readEntry(d, start, declarations(start, nil))
	if err != nil {
		return nil, err
	}
	e.Root = true
	return e, nil
}

// ReadFeed parses a feed document. Entries come back embedded (Root false)
// and each carries the namespaces its own fields use.
func ReadFeed(r io.Reader) (*Feed, error) {
	d := xml.NewDecoder(r)
	start, err := rootElement(d, "feed")
	if err != nil {
		return nil, err
	}
	decls := declarations(start, nil)

	f := &Feed{}
	for _, a := range start.Attr {
		if a.Name.Space == "xmlns" && a.Value != ProtocolNamespace {
			f.Namespaces.Add(Namespace{Prefix: a.Name.Local, URI: a.Value})
		}
	}

	for {
		tok, err := d.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != AtomNamespace {
				if err := d.Skip(); err != nil {
					return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
				}
				continue
			}
			switch t.Name.Local {
			case "entry":
				e, err := readEntry(d, t, decls)
				if err != nil {
					return nil, err
				}
				f.Namespaces.Union(e.Namespaces)
				f.Entries = append(f.Entries, e)
			case "id":
				if f.ID, err = readText(d, t); err != nil {
					return nil, err
				}
			case "title":
				if f.Title, err = readText(d, t); err != nil {
					return nil, err
				}
			case "updated":
				if f.Updated, err = readTime(d, t); err != nil {
					return nil, err
				}
			default:
				if err := d.Skip(); err != nil {
					return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
				}
			}
		case xml.EndElement:
			return f, nil
		}
	}
}

func readEntry(d *xml.Decoder, start xml.StartElement, inherited map[string]string) (*Entry, error) {
	decls := declarations(start, inherited)
	e := &Entry{}

	for _, a := range start.Attr {
		if a.Name.Space != ProtocolNamespace {
			continue
		}
		switch a.Name.Local {
		case "etag":
			e.Token = a.Value
		case "status":
			status, err := strconv.Atoi(a.Value)
			if err != nil {
				return nil, fmt.Errorf("%w: status %q", ErrMalformedDocument, a.Value)
			}
			e.Status = status
		case "error":
			e.Error = a.Value
		}
	}

	for {
		tok, err := d.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space == AtomNamespace {
				if err := readStandard(d, t, e); err != nil {
					return nil, err
				}
				continue
			}
			if t.Name.Space == "" || t.Name.Space == ProtocolNamespace {
				if err := d.Skip(); err != nil {
					return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
				}
				continue
			}
			value, err := readText(d, t)
			if err != nil {
				return nil, err
			}
			prefix, ok := decls[t.Name.Space]
			if !ok {
				prefix = "ns"
			}
			e.Put(Namespace{Prefix: prefix, URI: t.Name.Space}, t.Name.Local, value)
		case xml.EndElement:
			return e, nil
		}
	}
}

func readStandard(d *xml.Decoder, t xml.StartElement, e *Entry) error {
	var err error
	switch t.Name.Local {
	case "id":
		e.ID, err = readText(d, t)
	case "title":
		e.Title, err = readText(d, t)
	case "published":
		e.Published, err = readTime(d, t)
	case "updated":
		e.Updated, err = readTime(d, t)
	default:
		if skipErr := d.Skip(); skipErr != nil {
			err = fmt.Errorf("%w: %v", ErrMalformedDocument, skipErr)
		}
	}
	return err
}

// rootElement skips the prolog and checks the document element.
func rootElement(d *xml.Decoder, local string) (xml.StartElement, error) {
	for {
		tok, err := d.Token()
		if err != nil {
			return xml.StartElement{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			if start.Name.Space != AtomNamespace || start.Name.Local != local {
				return xml.StartElement{}, fmt.Errorf("%w: expected %s document, got {%s}%s",
					ErrMalformedDocument, local, start.Name.Space, start.Name.Local)
			}
			return start, nil
		}
	}
}

// declarations returns the uri->prefix bindings in scope at start.
func declarations(start xml.StartElement, inherited map[string]string) map[string]string {
	decls := make(map[string]string, len(inherited)+len(start.Attr))
	for uri, prefix := range inherited {
		decls[uri] = prefix
	}
	for _, a := range start.Attr {
		if a.Name.Space == "xmlns" {
			decls[a.Value] = a.Name.Local
		}
	}
	return decls
}

func readText(d *xml.Decoder, start xml.StartElement) (string, error) {
	var s string
	if err := d.DecodeElement(&s, &start); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrMalformedDocument, start.Name.Local, err)
	}
	return s, nil
}

func readTime(d *xml.Decoder, start xml.StartElement) (time.Time, error) {
	s, err := readText(d, start)
	if err != nil {
		return time.Time{}, err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", ErrMalformedDocument, start.Name.Local, err)
	}
	return t, nil
}
