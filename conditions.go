package custody

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/iov-one/custody/errors"
	"github.com/mr-tron/base58"
)

var (
	// AddressLength is the length of all addresses
	// You can modify it in init() before any addresses are calculated,
	// but it must not change during the lifetime of the kvstore
	AddressLength = 32

	// Bech32Prefix is the human readable part of bech32 encoded addresses.
	Bech32Prefix = "custody"

	// it must have (?s) flags, otherwise it errors when last section contains 0x20 (newline)
	perm = regexp.MustCompile(`(?s)^([a-zA-Z0-9_\-]{3,8})/([a-zA-Z0-9_\-]{3,8})/(.+)$`)
)

// Condition is a specially formatted array, containing
// information on who can authorize an action.
// It is of the format:
//
//   sprintf("%s/%s/%s", extension, type, data)
type Condition []byte

func NewCondition(ext, typ string, data []byte) Condition {
	pre := fmt.Sprintf("%s/%s/", ext, typ)
	return append([]byte(pre), data...)
}

// Parse will extract the sections from the Condition bytes
// and verify it is properly formatted
func (c Condition) Parse() (string, string, []byte, error) {
	chunks := perm.FindSubmatch(c)
	if len(chunks) == 0 {
		return "", "", nil, errors.Wrapf(errors.ErrInput, "condition: %X", []byte(c))
	}
	// returns [all, match1, match2, match3]
	return string(chunks[1]), string(chunks[2]), chunks[3], nil
}

// Address will convert a Condition into an Address
func (c Condition) Address() Address {
	return NewAddress(c)
}

// Equals checks if two permissions are the same
func (c Condition) Equals(b Condition) bool {
	return bytes.Equal(c, b)
}

// String returns a human readable string.
// We keep the extension and type in ascii and
// hex-encode the binary data
func (c Condition) String() string {
	ext, typ, data, err := c.Parse()
	if err != nil {
		return fmt.Sprintf("Invalid Condition: %X", []byte(c))
	}
	return fmt.Sprintf("%s/%s/%X", ext, typ, data)
}

// Validate returns an error if the Condition is not the proper format
func (c Condition) Validate() error {
	if !perm.Match(c) {
		return errors.Wrapf(errors.ErrInput, "condition: %X", []byte(c))
	}
	return nil
}

func (c Condition) MarshalJSON() ([]byte, error) {
	var serialized string
	if c != nil {
		serialized = c.String()
	}
	return json.Marshal(serialized)
}

func (c *Condition) UnmarshalJSON(raw []byte) error {
	var enc string
	if err := json.Unmarshal(raw, &enc); err != nil {
		return errors.Wrap(err, "cannot decode json")
	}
	return c.deserialize(enc)
}

// deserialize from human readable string.
func (c *Condition) deserialize(source string) error {
	// No value zero the address.
	if len(source) == 0 {
		*c = nil
		return nil
	}

	args := strings.Split(source, "/")
	if len(args) != 3 {
		return errors.Wrap(errors.ErrInput, "invalid condition format")
	}
	data, err := hex.DecodeString(args[2])
	if err != nil {
		return errors.Wrapf(errors.ErrInput, "malformed condition data: %s", err)
	}
	*c = NewCondition(args[0], args[1], data)
	return nil
}

// Address represents a collision-free, one-way digest
// of a Condition
//
// It will be of size AddressLength
type Address []byte

// Equals checks if two addresses are the same
func (a Address) Equals(b Address) bool {
	return bytes.Equal(a, b)
}

// Clone returns a copy of this address that does not share the memory.
func (a Address) Clone() Address {
	if a == nil {
		return nil
	}
	cpy := make(Address, len(a))
	copy(cpy, a)
	return cpy
}

// MarshalJSON provides a hex representation for JSON,
// to override the standard base64 []byte encoding
func (a Address) MarshalJSON() ([]byte, error) {
	s := strings.ToUpper(hex.EncodeToString(a))
	return json.Marshal(s)
}

func (a *Address) UnmarshalJSON(raw []byte) error {
	var enc string
	if err := json.Unmarshal(raw, &enc); err != nil {
		return errors.Wrap(err, "cannot decode json")
	}
	addr, err := ParseAddress(enc)
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// ParseAddress accepts address in a human readable format and decodes it.
//
// The format is "<encoding>:<value>". Supported encodings are hex (the default
// when no prefix is given), cond, bech32 and base58. An empty value decodes
// into a nil address.
func ParseAddress(enc string) (Address, error) {
	chunks := strings.SplitN(enc, ":", 2)
	format := chunks[0]
	if len(chunks) == 1 {
		format = "hex"
	} else {
		enc = chunks[1]
	}

	if len(enc) == 0 {
		return nil, nil
	}

	var addr Address
	switch format {
	case "hex":
		val, err := hex.DecodeString(enc)
		if err != nil {
			return nil, errors.Wrap(errors.ErrInput, "cannot decode hex")
		}
		addr = val
	case "cond":
		var c Condition
		if err := c.deserialize(enc); err != nil {
			return nil, err
		}
		if err := c.Validate(); err != nil {
			return nil, err
		}
		return c.Address(), nil
	case "bech32":
		_, data, err := bech32.Decode(enc)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInput, "deserialize bech32: %s", err)
		}
		payload, err := bech32.ConvertBits(data, 5, 8, false)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInput, "convert bech32 bits: %s", err)
		}
		addr = payload
	case "base58":
		val, err := base58.Decode(enc)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInput, "deserialize base58: %s", err)
		}
		addr = val
	default:
		return nil, errors.Wrapf(errors.ErrType, "unknown format %q", format)
	}
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	return addr, nil
}

// String returns a human readable string.
// Currently hex, may move to bech32
func (a Address) String() string {
	if len(a) == 0 {
		return "(nil)"
	}
	return strings.ToUpper(hex.EncodeToString(a))
}

// Bech32 returns the bech32 encoded form of this address using Bech32Prefix.
func (a Address) Bech32() (string, error) {
	data, err := bech32.ConvertBits(a, 8, 5, true)
	if err != nil {
		return "", errors.Wrap(errors.ErrInput, err.Error())
	}
	enc, err := bech32.Encode(Bech32Prefix, data)
	if err != nil {
		return "", errors.Wrap(errors.ErrInput, err.Error())
	}
	return enc, nil
}

// Base58 returns the base58 encoded form of this address.
func (a Address) Base58() string {
	return base58.Encode(a)
}

// Validate returns an error if the address is not the valid size
func (a Address) Validate() error {
	if len(a) != AddressLength {
		return errors.Wrapf(errors.ErrInput, "address: %v", a)
	}
	return nil
}

// NewAddress hashes and truncates into the proper size
func NewAddress(data []byte) Address {
	if data == nil {
		return nil
	}
	h := sha256.Sum256(data)
	return h[:AddressLength]
}
