package ipc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"reflect"

	"github.com/GriffinCanCode/AgentOS/appletd/internal/kernel"
	"github.com/GriffinCanCode/AgentOS/appletd/internal/shared/result"
)

type fieldKind uint8

const (
	fieldValue fieldKind = iota
	fieldClientPID
	fieldCopyHandle
	fieldMoveHandle
	fieldObject
)

var (
	clientPIDType = reflect.TypeFor[ClientProcessID]()
	copySlotType  = reflect.TypeFor[copySlot]()
	moveSlotType  = reflect.TypeFor[moveSlot]()
	objectType    = reflect.TypeFor[Object]()
)

type field struct {
	index int
	name  string
	kind  fieldKind
	size  int
}

// layout is the reflected shape of a command's input or output struct,
// computed once when the command is declared.
type layout struct {
	fields      []field
	size        int
	copyKinds   []kernel.ObjectKind
	moveKinds   []kernel.ObjectKind
	clientPID   bool
	objectCount int
}

func inputLayout(t reflect.Type) (*layout, error) {
	return buildLayout(t, true)
}

func outputLayout(t reflect.Type) (*layout, error) {
	return buildLayout(t, false)
}

func buildLayout(t reflect.Type, input bool) (*layout, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%s is not a struct", t)
	}

	l := &layout{}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			return nil, fmt.Errorf("field %s.%s is unexported", t, sf.Name)
		}

		f := field{index: i, name: sf.Name}
		ptr := reflect.PointerTo(sf.Type)

		switch {
		case sf.Type == clientPIDType:
			if !input || l.clientPID {
				return nil, fmt.Errorf("field %s: client process id must appear once, in the input", sf.Name)
			}
			f.kind = fieldClientPID
			l.clientPID = true

		case ptr.Implements(copySlotType):
			if !input {
				return nil, fmt.Errorf("field %s: copy handles are input only", sf.Name)
			}
			f.kind = fieldCopyHandle
			slot := reflect.New(sf.Type).Interface().(copySlot)
			l.copyKinds = append(l.copyKinds, slot.objectKind())

		case ptr.Implements(moveSlotType):
			if !input {
				return nil, fmt.Errorf("field %s: move handles are input only", sf.Name)
			}
			f.kind = fieldMoveHandle
			slot := reflect.New(sf.Type).Interface().(moveSlot)
			l.moveKinds = append(l.moveKinds, slot.objectKind())

		case sf.Type.Implements(objectType):
			if input {
				return nil, fmt.Errorf("field %s: objects are output only", sf.Name)
			}
			f.kind = fieldObject
			l.objectCount++

		default:
			size := fixedSize(sf.Type)
			if size < 0 {
				return nil, fmt.Errorf("field %s: %s is not fixed-size", sf.Name, sf.Type)
			}
			f.kind = fieldValue
			f.size = size
			l.size += size
		}

		l.fields = append(l.fields, f)
	}

	return l, nil
}

// decode fills v from req. Any mismatch between req and the layout is an
// invalid request and v is left partially filled.
func (l *layout) decode(v reflect.Value, req *Request) result.Result {
	if len(req.Data) != l.size ||
		len(req.CopyHandles) != len(l.copyKinds) ||
		len(req.MoveHandles) != len(l.moveKinds) {
		return ResultInvalidRequest
	}

	for i, want := range l.copyKinds {
		if req.CopyHandles[i] == nil {
			return ResultInvalidRequest
		}
		if kind, err := req.CopyHandles[i].Kind(); err != nil || kind != want {
			return ResultInvalidRequest
		}
	}
	for i, want := range l.moveKinds {
		if req.MoveHandles[i] == nil {
			return ResultInvalidRequest
		}
		if kind, err := req.MoveHandles[i].Kind(); err != nil || kind != want {
			return ResultInvalidRequest
		}
	}

	r := bytes.NewReader(req.Data)
	var copies, moves int
	for _, f := range l.fields {
		fv := v.Field(f.index)
		switch f.kind {
		case fieldValue:
			if err := binary.Read(r, binary.LittleEndian, fv.Addr().Interface()); err != nil {
				return ResultInvalidRequest
			}
		case fieldClientPID:
			fv.SetUint(uint64(req.ClientPID))
		case fieldCopyHandle:
			fv.Addr().Interface().(copySlot).bindCopy(req.CopyHandles[copies])
			copies++
		case fieldMoveHandle:
			fv.Addr().Interface().(moveSlot).bindMove(req.MoveHandles[moves])
			moves++
		}
	}

	return result.Success
}

// encode serializes v into a successful response
func (l *layout) encode(v reflect.Value) *Response {
	buf := bytes.NewBuffer(make([]byte, 0, l.size))
	resp := &Response{}

	for _, f := range l.fields {
		fv := v.Field(f.index)
		switch f.kind {
		case fieldValue:
			if err := binary.Write(buf, binary.LittleEndian, fv.Interface()); err != nil {
				l.closeObjects(v)
				return failure(ResultInvalidRequest)
			}
		case fieldObject:
			if isNil(fv) {
				l.closeObjects(v)
				return failure(ResultNullObject)
			}
			resp.Objects = append(resp.Objects, fv.Interface().(Object))
		}
	}

	resp.Data = buf.Bytes()
	return resp
}

// closeObjects disposes of any objects in v that will not be delivered
func (l *layout) closeObjects(v reflect.Value) {
	for _, f := range l.fields {
		if f.kind != fieldObject {
			continue
		}
		fv := v.Field(f.index)
		if isNil(fv) {
			continue
		}
		closeObject(fv.Interface().(Object))
	}
}

// fixedSize returns the encoded size of t, or -1 if t has no fixed layout.
// Nested structs must have only exported or blank fields so decoding can
// set them.
func fixedSize(t reflect.Type) int {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return int(t.Size())

	case reflect.Array:
		elem := fixedSize(t.Elem())
		if elem < 0 {
			return -1
		}
		return elem * t.Len()

	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if sf.Name != "_" && !sf.IsExported() {
				return -1
			}
			if fixedSize(sf.Type) < 0 {
				return -1
			}
		}
		return binary.Size(reflect.Zero(t).Interface())

	default:
		return -1
	}
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}
