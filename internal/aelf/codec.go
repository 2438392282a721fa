package aelf

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	clierr "github.com/ggonzalez94/awaken-cli/internal/errors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"

	// Register the well-known types contract descriptor sets depend on.
	_ "google.golang.org/protobuf/types/known/emptypb"
	_ "google.golang.org/protobuf/types/known/timestamppb"
	_ "google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	addressMessage protoreflect.FullName = "aelf.Address"
	hashMessage    protoreflect.FullName = "aelf.Hash"
)

// Codec encodes method inputs and decodes method outputs for one contract
// using the descriptor set the contract publishes.
type Codec struct {
	methods map[string]protoreflect.MethodDescriptor
}

func NewCodec(set *descriptorpb.FileDescriptorSet) (*Codec, error) {
	files, err := buildFiles(set)
	if err != nil {
		return nil, err
	}
	methods := map[string]protoreflect.MethodDescriptor{}
	files.RangeFiles(func(fd protoreflect.FileDescriptor) bool {
		services := fd.Services()
		for i := 0; i < services.Len(); i++ {
			ms := services.Get(i).Methods()
			for j := 0; j < ms.Len(); j++ {
				m := ms.Get(j)
				methods[string(m.Name())] = m
			}
		}
		return true
	})
	if len(methods) == 0 {
		return nil, clierr.New(clierr.CodeUnavailable, "contract descriptor set declares no methods")
	}
	return &Codec{methods: methods}, nil
}

// HasMethod reports whether the contract exposes method.
func (c *Codec) HasMethod(method string) bool {
	_, ok := c.methods[method]
	return ok
}

func (c *Codec) method(name string) (protoreflect.MethodDescriptor, error) {
	m, ok := c.methods[name]
	if !ok {
		return nil, clierr.Newf(clierr.CodeUnsupported, "contract has no method %s", name)
	}
	return m, nil
}

// EncodeInput serializes args as the input message of method. args may be
// a struct with JSON tags or a map; keys match JSON or proto field names.
func (c *Codec) EncodeInput(method string, args any) ([]byte, error) {
	m, err := c.method(method)
	if err != nil {
		return nil, err
	}
	msg := dynamicpb.NewMessage(m.Input())
	if args != nil {
		value, err := toGeneric(args)
		if err != nil {
			return nil, clierr.Wrap(clierr.CodeUsage, fmt.Sprintf("encode %s input", method), err)
		}
		if err := fillMessage(msg, value); err != nil {
			return nil, clierr.Wrap(clierr.CodeUsage, fmt.Sprintf("encode %s input", method), err)
		}
	}
	buf, err := proto.MarshalOptions{Deterministic: true}.Marshal(msg)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeInternal, fmt.Sprintf("marshal %s input", method), err)
	}
	return buf, nil
}

// DecodeOutput parses the output message of method into a generic map.
func (c *Codec) DecodeOutput(method string, raw []byte) (map[string]any, error) {
	m, err := c.method(method)
	if err != nil {
		return nil, err
	}
	msg := dynamicpb.NewMessage(m.Output())
	if err := proto.Unmarshal(raw, msg); err != nil {
		return nil, clierr.Wrap(clierr.CodeUnavailable, fmt.Sprintf("decode %s output", method), err)
	}
	switch v := messageValue(msg).(type) {
	case map[string]any:
		return v, nil
	default:
		return map[string]any{"value": v}, nil
	}
}

// buildFiles registers the set's files in dependency order, resolving
// imports against the set first and the global registry second.
func buildFiles(set *descriptorpb.FileDescriptorSet) (*protoregistry.Files, error) {
	local := new(protoregistry.Files)
	resolver := chainResolver{local: local}

	var pending []*descriptorpb.FileDescriptorProto
	for _, f := range set.GetFile() {
		if _, err := protoregistry.GlobalFiles.FindFileByPath(f.GetName()); err == nil {
			continue
		}
		pending = append(pending, f)
	}

	lenient := protodesc.FileOptions{AllowUnresolvable: true}
	for len(pending) > 0 {
		var next []*descriptorpb.FileDescriptorProto
		for _, f := range pending {
			fd, err := protodesc.NewFile(f, resolver)
			if err != nil {
				next = append(next, f)
				continue
			}
			if err := local.RegisterFile(fd); err != nil {
				return nil, clierr.Wrap(clierr.CodeUnavailable, "register contract descriptor", err)
			}
		}
		if len(next) == len(pending) {
			// Remaining files import something the set does not carry.
			for _, f := range next {
				fd, err := lenient.New(f, resolver)
				if err != nil {
					return nil, clierr.Wrap(clierr.CodeUnavailable, fmt.Sprintf("build descriptor %s", f.GetName()), err)
				}
				if err := local.RegisterFile(fd); err != nil {
					return nil, clierr.Wrap(clierr.CodeUnavailable, "register contract descriptor", err)
				}
			}
			break
		}
		pending = next
	}
	return local, nil
}

type chainResolver struct {
	local *protoregistry.Files
}

func (r chainResolver) FindFileByPath(path string) (protoreflect.FileDescriptor, error) {
	if fd, err := r.local.FindFileByPath(path); err == nil {
		return fd, nil
	}
	return protoregistry.GlobalFiles.FindFileByPath(path)
}

func (r chainResolver) FindDescriptorByName(name protoreflect.FullName) (protoreflect.Descriptor, error) {
	if d, err := r.local.FindDescriptorByName(name); err == nil {
		return d, nil
	}
	return protoregistry.GlobalFiles.FindDescriptorByName(name)
}

func toGeneric(args any) (any, error) {
	buf, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(strings.NewReader(string(buf)))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func fillMessage(msg protoreflect.Message, value any) error {
	desc := msg.Descriptor()
	switch desc.FullName() {
	case addressMessage:
		if s, ok := value.(string); ok {
			raw, err := DecodeAddress(s)
			if err != nil {
				return err
			}
			msg.Set(desc.Fields().ByName("value"), protoreflect.ValueOfBytes(raw))
			return nil
		}
	case hashMessage:
		if s, ok := value.(string); ok {
			raw, err := hex.DecodeString(s)
			if err != nil {
				return fmt.Errorf("decode hash %q: %w", s, err)
			}
			msg.Set(desc.Fields().ByName("value"), protoreflect.ValueOfBytes(raw))
			return nil
		}
	}

	fields, ok := value.(map[string]any)
	if !ok {
		// Wrapper messages accept their bare scalar.
		if fd := desc.Fields().ByName("value"); fd != nil && desc.Fields().Len() == 1 {
			return setField(msg, fd, value)
		}
		return fmt.Errorf("%s expects an object, got %T", desc.FullName(), value)
	}
	for key, v := range fields {
		if v == nil {
			continue
		}
		fd := findField(desc, key)
		if fd == nil {
			return fmt.Errorf("%s has no field %q", desc.FullName(), key)
		}
		if err := setField(msg, fd, v); err != nil {
			return fmt.Errorf("%s.%s: %w", desc.FullName(), key, err)
		}
	}
	return nil
}

func findField(desc protoreflect.MessageDescriptor, key string) protoreflect.FieldDescriptor {
	fields := desc.Fields()
	if fd := fields.ByJSONName(key); fd != nil {
		return fd
	}
	if fd := fields.ByName(protoreflect.Name(key)); fd != nil {
		return fd
	}
	return fields.ByTextName(key)
}

func setField(msg protoreflect.Message, fd protoreflect.FieldDescriptor, value any) error {
	switch {
	case fd.IsList():
		items, ok := value.([]any)
		if !ok {
			return fmt.Errorf("expected list, got %T", value)
		}
		list := msg.Mutable(fd).List()
		for _, item := range items {
			if isMessage(fd) {
				elem := list.NewElement()
				if err := fillMessage(elem.Message(), item); err != nil {
					return err
				}
				list.Append(elem)
				continue
			}
			pv, err := scalarValue(fd, item)
			if err != nil {
				return err
			}
			list.Append(pv)
		}
		return nil
	case fd.IsMap():
		entries, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("expected object, got %T", value)
		}
		m := msg.Mutable(fd).Map()
		for k, item := range entries {
			key, err := scalarValue(fd.MapKey(), k)
			if err != nil {
				return err
			}
			if isMessage(fd.MapValue()) {
				val := m.NewValue()
				if err := fillMessage(val.Message(), item); err != nil {
					return err
				}
				m.Set(key.MapKey(), val)
				continue
			}
			val, err := scalarValue(fd.MapValue(), item)
			if err != nil {
				return err
			}
			m.Set(key.MapKey(), val)
		}
		return nil
	case isMessage(fd):
		return fillMessage(msg.Mutable(fd).Message(), value)
	default:
		pv, err := scalarValue(fd, value)
		if err != nil {
			return err
		}
		msg.Set(fd, pv)
		return nil
	}
}

func isMessage(fd protoreflect.FieldDescriptor) bool {
	return fd.Kind() == protoreflect.MessageKind || fd.Kind() == protoreflect.GroupKind
}

func scalarValue(fd protoreflect.FieldDescriptor, value any) (protoreflect.Value, error) {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		switch v := value.(type) {
		case bool:
			return protoreflect.ValueOfBool(v), nil
		case string:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return protoreflect.Value{}, err
			}
			return protoreflect.ValueOfBool(b), nil
		}
	case protoreflect.StringKind:
		switch v := value.(type) {
		case string:
			return protoreflect.ValueOfString(v), nil
		case json.Number:
			return protoreflect.ValueOfString(v.String()), nil
		}
	case protoreflect.BytesKind:
		if s, ok := value.(string); ok {
			raw, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return protoreflect.Value{}, err
			}
			return protoreflect.ValueOfBytes(raw), nil
		}
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		n, err := toInt(value, 32)
		if err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfInt32(int32(n)), nil
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		n, err := toInt(value, 64)
		if err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfInt64(n), nil
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		n, err := toUint(value, 32)
		if err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfUint32(uint32(n)), nil
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		n, err := toUint(value, 64)
		if err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfUint64(n), nil
	case protoreflect.FloatKind, protoreflect.DoubleKind:
		f, err := strconv.ParseFloat(numberText(value), 64)
		if err != nil {
			return protoreflect.Value{}, err
		}
		if fd.Kind() == protoreflect.FloatKind {
			return protoreflect.ValueOfFloat32(float32(f)), nil
		}
		return protoreflect.ValueOfFloat64(f), nil
	case protoreflect.EnumKind:
		if s, ok := value.(string); ok {
			if ev := fd.Enum().Values().ByName(protoreflect.Name(s)); ev != nil {
				return protoreflect.ValueOfEnum(ev.Number()), nil
			}
		}
		n, err := toInt(value, 32)
		if err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfEnum(protoreflect.EnumNumber(n)), nil
	}
	return protoreflect.Value{}, fmt.Errorf("cannot use %T as %s", value, fd.Kind())
}

func numberText(value any) string {
	switch v := value.(type) {
	case json.Number:
		return v.String()
	case string:
		return strings.TrimSpace(v)
	default:
		return fmt.Sprint(v)
	}
}

func toInt(value any, bits int) (int64, error) {
	return strconv.ParseInt(numberText(value), 10, bits)
}

func toUint(value any, bits int) (uint64, error) {
	return strconv.ParseUint(numberText(value), 10, bits)
}

func messageValue(msg protoreflect.Message) any {
	desc := msg.Descriptor()
	switch desc.FullName() {
	case addressMessage:
		raw := msg.Get(desc.Fields().ByName("value")).Bytes()
		if len(raw) == 0 {
			return ""
		}
		return EncodeAddress(raw)
	case hashMessage:
		return hex.EncodeToString(msg.Get(desc.Fields().ByName("value")).Bytes())
	}
	out := map[string]any{}
	msg.Range(func(fd protoreflect.FieldDescriptor, v protoreflect.Value) bool {
		out[fd.JSONName()] = fieldValue(fd, v)
		return true
	})
	return out
}

func fieldValue(fd protoreflect.FieldDescriptor, v protoreflect.Value) any {
	switch {
	case fd.IsList():
		list := v.List()
		items := make([]any, 0, list.Len())
		for i := 0; i < list.Len(); i++ {
			items = append(items, singleValue(fd, list.Get(i)))
		}
		return items
	case fd.IsMap():
		out := map[string]any{}
		v.Map().Range(func(k protoreflect.MapKey, mv protoreflect.Value) bool {
			out[k.String()] = singleValue(fd.MapValue(), mv)
			return true
		})
		return out
	default:
		return singleValue(fd, v)
	}
}

func singleValue(fd protoreflect.FieldDescriptor, v protoreflect.Value) any {
	switch fd.Kind() {
	case protoreflect.MessageKind, protoreflect.GroupKind:
		return messageValue(v.Message())
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return strconv.FormatInt(v.Int(), 10)
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return strconv.FormatUint(v.Uint(), 10)
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		return v.Int()
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		return v.Uint()
	case protoreflect.FloatKind, protoreflect.DoubleKind:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return f
	case protoreflect.BytesKind:
		return base64.StdEncoding.EncodeToString(v.Bytes())
	case protoreflect.EnumKind:
		if ev := fd.Enum().Values().ByNumber(v.Enum()); ev != nil {
			return string(ev.Name())
		}
		return int64(v.Enum())
	default:
		return v.Interface()
	}
}
