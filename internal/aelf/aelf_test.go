package aelf

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
)

func testAddress(fill byte) string {
	return EncodeAddress(bytes.Repeat([]byte{fill}, addressLength))
}

func TestAddressRoundTrip(t *testing.T) {
	w, err := NewRandomWallet()
	if err != nil {
		t.Fatalf("NewRandomWallet failed: %v", err)
	}
	raw, err := DecodeAddress(w.Address())
	if err != nil {
		t.Fatalf("DecodeAddress failed: %v", err)
	}
	if !bytes.Equal(raw, AddressBytesFromPublicKey(&w.key.PublicKey)) {
		t.Fatal("decoded address does not match public key digest")
	}
	if EncodeAddress(raw) != w.Address() {
		t.Fatal("re-encoded address differs")
	}
}

func TestDecodeAddressRejectsBadChecksum(t *testing.T) {
	addr := testAddress(7)
	tampered := []byte(addr)
	if tampered[len(tampered)-1] == '2' {
		tampered[len(tampered)-1] = '3'
	} else {
		tampered[len(tampered)-1] = '2'
	}
	if _, err := DecodeAddress(string(tampered)); err == nil {
		t.Fatal("expected checksum error")
	}
	if _, err := DecodeAddress("0OIl"); err == nil {
		t.Fatal("expected base58 error")
	}
}

func TestTransactionSigningAndID(t *testing.T) {
	w, err := NewRandomWallet()
	if err != nil {
		t.Fatalf("NewRandomWallet failed: %v", err)
	}
	ref := ChainStatus{BestChainHash: "a1b2c3d4e5f6", BestChainHeight: 1234}
	tx, err := NewTransaction(w.Address(), testAddress(1), "Approve", []byte{0x0a, 0x01, 0x41}, ref)
	if err != nil {
		t.Fatalf("NewTransaction failed: %v", err)
	}
	if !bytes.Equal(tx.RefBlockPrefix, []byte{0xa1, 0xb2, 0xc3, 0xd4}) {
		t.Fatalf("unexpected ref block prefix %x", tx.RefBlockPrefix)
	}
	unsigned, err := tx.marshal(false)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	sum := sha256.Sum256(unsigned)
	id, err := tx.ID()
	if err != nil || id != hex.EncodeToString(sum[:]) {
		t.Fatalf("unexpected id %s err=%v", id, err)
	}

	if err := tx.Sign(w); err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if len(tx.Signature) != 65 {
		t.Fatalf("expected 65-byte signature, got %d", len(tx.Signature))
	}
	pub, err := crypto.SigToPub(sum[:], tx.Signature)
	if err != nil {
		t.Fatalf("recover signer: %v", err)
	}
	if AddressFromPublicKey(pub) != w.Address() {
		t.Fatal("signature does not recover to the wallet address")
	}
	idAfter, _ := tx.ID()
	if idAfter != id {
		t.Fatal("signing must not change the transaction id")
	}

	rawHex, err := tx.Hex()
	if err != nil {
		t.Fatalf("Hex failed: %v", err)
	}
	raw, _ := hex.DecodeString(rawHex)
	fields := map[protowire.Number][]byte{}
	for len(raw) > 0 {
		num, typ, n := protowire.ConsumeTag(raw)
		raw = raw[n:]
		switch typ {
		case protowire.VarintType:
			_, m := protowire.ConsumeVarint(raw)
			raw = raw[m:]
			fields[num] = nil
		case protowire.BytesType:
			v, m := protowire.ConsumeBytes(raw)
			raw = raw[m:]
			fields[num] = v
		default:
			t.Fatalf("unexpected wire type %d", typ)
		}
	}
	if string(fields[txFieldMethodName]) != "Approve" {
		t.Fatalf("unexpected method name %q", fields[txFieldMethodName])
	}
	if !bytes.Equal(fields[txFieldSignature], tx.Signature) {
		t.Fatal("signature field missing from wire encoding")
	}
	if _, ok := fields[txFieldRefBlockNumber]; !ok {
		t.Fatal("ref block number missing")
	}
}

// testDescriptorSet describes a small token-like contract. The contract file
// is listed before its dependency to exercise ordering.
func testDescriptorSet() *descriptorpb.FileDescriptorSet {
	str := descriptorpb.FieldDescriptorProto_TYPE_STRING.Enum()
	i64 := descriptorpb.FieldDescriptorProto_TYPE_INT64.Enum()
	i32 := descriptorpb.FieldDescriptorProto_TYPE_INT32.Enum()
	msg := descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum()
	optional := descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum()
	repeated := descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
	field := func(name string, num int32, typ *descriptorpb.FieldDescriptorProto_Type, label *descriptorpb.FieldDescriptorProto_Label, typeName string) *descriptorpb.FieldDescriptorProto {
		f := &descriptorpb.FieldDescriptorProto{Name: proto.String(name), Number: proto.Int32(num), Type: typ, Label: label}
		if typeName != "" {
			f.TypeName = proto.String(typeName)
		}
		return f
	}

	core := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("aelf/core.proto"),
		Package: proto.String("aelf"),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{Name: proto.String("Address"), Field: []*descriptorpb.FieldDescriptorProto{
				field("value", 1, descriptorpb.FieldDescriptorProto_TYPE_BYTES.Enum(), optional, ""),
			}},
		},
	}
	token := &descriptorpb.FileDescriptorProto{
		Name:       proto.String("token_contract.proto"),
		Package:    proto.String("tokenimpl"),
		Syntax:     proto.String("proto3"),
		Dependency: []string{"aelf/core.proto", "google/protobuf/timestamp.proto", "google/protobuf/empty.proto"},
		MessageType: []*descriptorpb.DescriptorProto{
			{Name: proto.String("GetBalanceInput"), Field: []*descriptorpb.FieldDescriptorProto{
				field("symbol", 1, str, optional, ""),
				field("owner", 2, msg, optional, ".aelf.Address"),
			}},
			{Name: proto.String("GetBalanceOutput"), Field: []*descriptorpb.FieldDescriptorProto{
				field("symbol", 1, str, optional, ""),
				field("owner", 2, msg, optional, ".aelf.Address"),
				field("balance", 3, i64, optional, ""),
			}},
			{Name: proto.String("SwapToken"), Field: []*descriptorpb.FieldDescriptorProto{
				field("amount_in", 1, i64, optional, ""),
				field("path", 2, str, repeated, ""),
				field("deadline", 3, msg, optional, ".google.protobuf.Timestamp"),
				field("fee_rates", 4, i64, repeated, ""),
				field("to", 5, msg, optional, ".aelf.Address"),
			}},
			{Name: proto.String("SwapInput"), Field: []*descriptorpb.FieldDescriptorProto{
				field("swap_tokens", 1, msg, repeated, ".tokenimpl.SwapToken"),
				field("labs_fee_rate", 2, i32, optional, ""),
			}},
		},
		Service: []*descriptorpb.ServiceDescriptorProto{
			{Name: proto.String("TokenContract"), Method: []*descriptorpb.MethodDescriptorProto{
				{Name: proto.String("GetBalance"), InputType: proto.String(".tokenimpl.GetBalanceInput"), OutputType: proto.String(".tokenimpl.GetBalanceOutput")},
				{Name: proto.String("Swap"), InputType: proto.String(".tokenimpl.SwapInput"), OutputType: proto.String(".google.protobuf.Empty")},
			}},
		},
	}
	return &descriptorpb.FileDescriptorSet{File: []*descriptorpb.FileDescriptorProto{token, core}}
}
