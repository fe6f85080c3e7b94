package catalog

import (
	"github.com/gogo/protobuf/proto"
)

// State is the catalog header stored under the state key.
type State struct {
	MajorVers uint32 `protobuf:"varint,1,opt,name=major_vers,json=majorVers,proto3" json:"major_vers,omitempty"`
	MinorVers uint32 `protobuf:"varint,2,opt,name=minor_vers,json=minorVers,proto3" json:"minor_vers,omitempty"`
	Created   int64  `protobuf:"varint,3,opt,name=created,proto3" json:"created,omitempty"`
}

func (m *State) Reset()         { *m = State{} }
func (m *State) String() string { return proto.CompactTextString(m) }
func (*State) ProtoMessage()    {}

// Checkpoint records how far a pair scan of one order has progressed.
//
// Every r1 < NextR1 has been fully scanned and its pairs are stored alongside.
type Checkpoint struct {
	Order       uint32 `protobuf:"varint,1,opt,name=order,proto3" json:"order,omitempty"`
	NumGraphs   uint32 `protobuf:"varint,2,opt,name=num_graphs,json=numGraphs,proto3" json:"num_graphs,omitempty"`
	NextR1      uint32 `protobuf:"varint,3,opt,name=next_r1,json=nextR1,proto3" json:"next_r1,omitempty"`
	NumPairs    uint32 `protobuf:"varint,4,opt,name=num_pairs,json=numPairs,proto3" json:"num_pairs,omitempty"`
	RunID       string `protobuf:"bytes,5,opt,name=run_id,json=runId,proto3" json:"run_id,omitempty"`
	Updated     int64  `protobuf:"varint,6,opt,name=updated,proto3" json:"updated,omitempty"`
	Fingerprint uint64 `protobuf:"varint,7,opt,name=fingerprint,proto3" json:"fingerprint,omitempty"`
}

func (m *Checkpoint) Reset()         { *m = Checkpoint{} }
func (m *Checkpoint) String() string { return proto.CompactTextString(m) }
func (*Checkpoint) ProtoMessage()    {}

// IsDone returns true if every r1 row has been scanned.
func (m *Checkpoint) IsDone() bool {
	return m.NextR1 >= m.NumGraphs
}
