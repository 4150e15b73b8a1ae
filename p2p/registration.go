package p2p

import "github.com/tos-network/blockchat/wire"

// Registration is the body a joining node posts to the bootstrap node's
// /register_node (spec.md §6: "{public_key, ip, port}").
type Registration struct {
	PublicKey string
	IP        string
	Port      string
}

func (r *Registration) MarshalWire(w *wire.Writer) error {
	w.WriteString(r.PublicKey)
	w.WriteString(r.IP)
	w.WriteString(r.Port)
	return nil
}

func (r *Registration) UnmarshalWire(rd *wire.Reader) error {
	var err error
	if r.PublicKey, err = rd.ReadString(); err != nil {
		return err
	}
	if r.IP, err = rd.ReadString(); err != nil {
		return err
	}
	if r.Port, err = rd.ReadString(); err != nil {
		return err
	}
	return nil
}

func (r *Registration) EncodeWire() ([]byte, error) { return wire.Encode(wire.KindRegistration, r) }

// DecodeRegistration decodes a Registration envelope produced by EncodeWire.
func DecodeRegistration(data []byte) (*Registration, error) {
	r := &Registration{}
	if err := wire.Decode(data, wire.KindRegistration, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Assignment is the bootstrap node's reply to /register_node: the id it
// assigned the new peer.
type Assignment struct {
	ID uint32
}

func (a *Assignment) MarshalWire(w *wire.Writer) error {
	w.WriteUint64(uint64(a.ID))
	return nil
}

func (a *Assignment) UnmarshalWire(r *wire.Reader) error {
	id, err := r.ReadUint64()
	if err != nil {
		return err
	}
	a.ID = uint32(id)
	return nil
}

func (a *Assignment) EncodeWire() ([]byte, error) { return wire.Encode(wire.KindAssignment, a) }

// DecodeAssignment decodes an Assignment envelope produced by EncodeWire.
func DecodeAssignment(data []byte) (*Assignment, error) {
	a := &Assignment{}
	if err := wire.Decode(data, wire.KindAssignment, a); err != nil {
		return nil, err
	}
	return a, nil
}
