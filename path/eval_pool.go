package path

import (
	"github.com/delaneyj/toolbelt"
	nbt "github.com/starfederation/nbt-go"
)

// evalState holds the two frontier slices used while walking a path and the
// compounds a creating walk has yet to attach.
type evalState struct {
	cur    []nbt.Tag
	next   []nbt.Tag
	staged []stagedMember
}

type stagedMember struct {
	parent *nbt.Compound
	key    string
	child  *nbt.Compound
}

var evalStatePool = toolbelt.New(func() *evalState {
	return &evalState{
		cur:  make([]nbt.Tag, 0, 16),
		next: make([]nbt.Tag, 0, 16),
	}
})

func acquireEvalState() *evalState {
	return evalStatePool.Get()
}

func releaseEvalState(st *evalState) {
	if st == nil {
		return
	}
	clear(st.cur[:cap(st.cur)])
	clear(st.next[:cap(st.next)])
	clear(st.staged)
	st.cur = st.cur[:0]
	st.next = st.next[:0]
	st.staged = st.staged[:0]
	evalStatePool.Put(st)
}
