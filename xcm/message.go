package xcm

import (
	"bytes"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
)

// Message is an XCM program addressed to Destination, encoded as a VersionedXcm.
type Message struct {
	Version      Version
	Destination  MultiLocation
	Instructions []Instruction
}

// Names lists the instruction names in order.
func (m Message) Names() []string {
	names := make([]string, len(m.Instructions))
	for i, ins := range m.Instructions {
		names[i] = ins.Name()
	}

	return names
}

// VersionedDestination wraps Destination in the message's version.
func (m Message) VersionedDestination() VersionedLocation {
	return VersionedLocation{Version: m.Version, Location: m.Destination}
}

// Encode implements scale.Encodeable, writing the VersionedXcm form of the instruction list.
func (m Message) Encode(e scale.Encoder) error {
	idx, err := m.Version.messageIndex()
	if err != nil {
		return err
	}
	if err = e.PushByte(idx); err != nil {
		return err
	}
	if err = encodeCompact(e, uint64(len(m.Instructions))); err != nil {
		return err
	}
	for _, ins := range m.Instructions {
		if err = encodeInstruction(e, m.Version, ins); err != nil {
			return err
		}
	}

	return nil
}

// Bytes returns the SCALE encoding of m.
func (m Message) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := m.Encode(*scale.NewEncoder(&buf)); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
