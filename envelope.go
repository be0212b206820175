package nbt

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Mode selects how the root envelope is framed.
type Mode uint8

const (
	// ModeFile writes the root compound's name, as stored in files.
	ModeFile Mode = iota
	// ModeNetwork omits the root name, as sent over the wire since
	// protocol version 764.
	ModeNetwork
)

func (m Mode) String() string {
	switch m {
	case ModeFile:
		return "file"
	case ModeNetwork:
		return "network"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(m))
	}
}

// ParseMode parses a mode name as printed by String.
func ParseMode(name string) (Mode, error) {
	switch name {
	case "file", "":
		return ModeFile, nil
	case "network":
		return ModeNetwork, nil
	default:
		return 0, fmt.Errorf("unknown mode: %q", name)
	}
}

// Root is the top-level unit exchanged with callers: a named compound.
type Root struct {
	Name     string
	Compound *Compound
}

// NewRoot returns a root holding c under name. A nil c becomes empty.
func NewRoot(name string, c *Compound) Root {
	if c == nil {
		c = NewCompound()
	}
	return Root{Name: name, Compound: c}
}

// Equal reports whether both roots share a name and hold equal compounds.
// Member order is ignored, as in Equal.
func (r Root) Equal(other Root) bool {
	if r.Name != other.Name {
		return false
	}
	return compoundEqual(r.compound(), other.compound(), false)
}

func (r Root) compound() *Compound {
	if r.Compound == nil {
		return NewCompound()
	}
	return r.Compound
}

// WriteOptions configures Write.
type WriteOptions struct {
	Mode        Mode
	Compression Compression
}

// Read decodes one root from r, unwrapping any recognised compression.
// It returns the detected compression alongside the root. The stream is read
// to its end so container checksums are verified; bytes left after the root
// are reported as malformed.
func Read(r io.Reader, opts DecodeOptions) (Root, Compression, error) {
	rc, c, err := NewDecompressor(r)
	if err != nil {
		return Root{}, c, err
	}
	defer rc.Close()
	cr := &countingReader{r: rc}
	br := bufio.NewReader(cr)
	root, err := NewDecoder(br, opts).Decode()
	if err != nil {
		return Root{}, c, err
	}
	end := cr.n - int64(br.Buffered())
	switch _, err := br.ReadByte(); {
	case err == nil:
		return Root{}, c, newError(KindMalformed, end, "trailing bytes after root")
	case err != io.EOF:
		if KindOf(err) != KindUnknown {
			return Root{}, c, err
		}
		if c == CompressionNone {
			return Root{}, c, wrapError(KindIO, end, err, "read failed")
		}
		return Root{}, c, wrapError(KindContainerCorrupt, end, err, "%s stream", c)
	}
	return root, c, nil
}

// countingReader tracks how many bytes have been pulled from r.
type countingReader struct {
	r io.Reader
	n int64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.n += int64(n)
	return n, err
}

// Write encodes root to w inside the requested compression.
func Write(w io.Writer, root Root, opts WriteOptions) error {
	wc, err := NewCompressor(w, opts.Compression)
	if err != nil {
		return err
	}
	if err := NewEncoder(wc, EncodeOptions{Mode: opts.Mode}).Encode(root); err != nil {
		wc.Close()
		return err
	}
	if err := wc.Close(); err != nil {
		return wrapError(KindIO, -1, err, "close %s stream", opts.Compression)
	}
	return nil
}

// ReadFile decodes the root stored at path.
func ReadFile(path string, opts DecodeOptions) (Root, Compression, error) {
	f, err := os.Open(path)
	if err != nil {
		return Root{}, CompressionNone, wrapError(KindIO, -1, err, "open %s", path)
	}
	defer f.Close()
	return Read(f, opts)
}

// WriteFile encodes root into path, replacing any existing file.
func WriteFile(path string, root Root, opts WriteOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return wrapError(KindIO, -1, err, "create %s", path)
	}
	bw := bufio.NewWriter(f)
	if err := Write(bw, root, opts); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return wrapError(KindIO, -1, err, "flush %s", path)
	}
	if err := f.Close(); err != nil {
		return wrapError(KindIO, -1, err, "close %s", path)
	}
	return nil
}
