package merge

import (
	"fmt"

	nbt "github.com/starfederation/nbt-go"
)

// ListMode selects how a list in the patch combines with a list in the target.
type ListMode uint8

const (
	// ListReplace overwrites the target list with the patch list.
	ListReplace ListMode = iota
	// ListAppend appends patch elements when both lists share an element type.
	ListAppend
)

// Options configures a merge. The zero value replaces lists.
type Options struct {
	Lists ListMode
	// MaxDepth bounds compound nesting in the patch. Zero means nbt.DefaultMaxDepth.
	MaxDepth int
}

// Merge returns a copy of target with patch merged into it. Compound members
// present in both are merged recursively; any other value in patch replaces
// the target's. Neither input is modified.
func Merge(target, patch *nbt.Compound) (*nbt.Compound, error) {
	return MergeWith(target, patch, Options{})
}

// MergeWith is Merge with options.
func MergeWith(target, patch *nbt.Compound, opts Options) (*nbt.Compound, error) {
	out := nbt.CloneCompound(target)
	if out == nil {
		out = nbt.NewCompound()
	}
	if err := IntoWith(out, patch, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// Into merges patch into target in place.
func Into(target, patch *nbt.Compound) error {
	return IntoWith(target, patch, Options{})
}

// IntoWith is Into with options.
func IntoWith(target, patch *nbt.Compound, opts Options) error {
	if target == nil {
		return fmt.Errorf("merge target is nil")
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = nbt.DefaultMaxDepth
	}
	m := compoundMerger{opts: opts}
	return m.mergeCompound(target, patch, 1)
}

type compoundMerger struct {
	opts Options
}

func (m *compoundMerger) mergeCompound(target, patch *nbt.Compound, depth int) error {
	if depth > m.opts.MaxDepth {
		return fmt.Errorf("merge depth exceeds %d", m.opts.MaxDepth)
	}
	for name, pv := range patch.All() {
		if pv == nil {
			return fmt.Errorf("merge patch member %q is nil", name)
		}
		tv, ok := target.Get(name)
		if !ok {
			target.Set(name, nbt.Clone(pv))
			continue
		}
		switch p := pv.(type) {
		case *nbt.Compound:
			if tc, ok := tv.(*nbt.Compound); ok {
				if err := m.mergeCompound(tc, p, depth+1); err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				continue
			}
		case *nbt.List:
			if tl, ok := tv.(*nbt.List); ok && m.opts.Lists == ListAppend {
				if err := appendList(tl, p); err == nil {
					continue
				}
			}
		}
		target.Set(name, nbt.Clone(pv))
	}
	return nil
}

// appendList appends clones of src to dst when their element types agree.
// An empty list on either side adopts the other's type.
func appendList(dst, src *nbt.List) error {
	if dst.Len() > 0 && src.Len() > 0 && dst.ElemType() != src.ElemType() {
		return fmt.Errorf("cannot append list of %s to list of %s", src.ElemType(), dst.ElemType())
	}
	for _, v := range src.All() {
		if err := dst.Append(nbt.Clone(v)); err != nil {
			return err
		}
	}
	return nil
}
