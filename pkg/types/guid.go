package types

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// ============================================================================
//                              GUID - 全局唯一标识
// ============================================================================

// GUIDSize GUID 字节长度
const GUIDSize = 16

// GUIDPrefixSize GUID 前缀长度
//
// 同一参与者创建的所有实体共享前 12 字节，后 4 字节为实体 ID。
const GUIDPrefixSize = 12

// GUID 参与者或实体的 16 字节全局唯一标识
//
// 外部表示格式：
//   - String(): UUID 文本形式（8-4-4-4-12）
//   - ShortString(): 前 8 个十六进制字符（日志简短标识）
type GUID [GUIDSize]byte

// ZeroGUID 零值 GUID
var ZeroGUID GUID

// 实体 ID 约定
const (
	// EntityIDParticipant 参与者自身的实体 ID
	EntityIDParticipant uint32 = 0x000001c1
)

// NewParticipantGUID 生成新的参与者 GUID
//
// 前缀取自随机 UUID，实体 ID 固定为 EntityIDParticipant。
func NewParticipantGUID() GUID {
	g := GUID(uuid.New())
	binary.BigEndian.PutUint32(g[GUIDPrefixSize:], EntityIDParticipant)
	return g
}

// NewEntityGUID 基于参与者前缀派生实体 GUID
func NewEntityGUID(participant GUID, entityID uint32) GUID {
	var g GUID
	copy(g[:GUIDPrefixSize], participant[:GUIDPrefixSize])
	binary.BigEndian.PutUint32(g[GUIDPrefixSize:], entityID)
	return g
}

// GUIDFromBytes 从字节切片构造 GUID
func GUIDFromBytes(b []byte) (GUID, error) {
	var g GUID
	if len(b) != GUIDSize {
		return g, fmt.Errorf("%w: got %d bytes", ErrInvalidGUID, len(b))
	}
	copy(g[:], b)
	return g, nil
}

// ParseGUID 解析 GUID 文本形式
func ParseGUID(s string) (GUID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ZeroGUID, fmt.Errorf("%w: %v", ErrInvalidGUID, err)
	}
	return GUID(u), nil
}

// String 返回 GUID 的文本表示
func (g GUID) String() string {
	return uuid.UUID(g).String()
}

// ShortString 返回 GUID 的短字符串表示
func (g GUID) ShortString() string {
	return g.String()[:8]
}

// Bytes 返回 GUID 的字节切片副本
func (g GUID) Bytes() []byte {
	b := make([]byte, GUIDSize)
	copy(b, g[:])
	return b
}

// IsZero 是否为零值
func (g GUID) IsZero() bool {
	return g == ZeroGUID
}

// EntityID 返回 GUID 的实体 ID 部分
func (g GUID) EntityID() uint32 {
	return binary.BigEndian.Uint32(g[GUIDPrefixSize:])
}

// ParticipantGUID 返回该实体所属参与者的 GUID
func (g GUID) ParticipantGUID() GUID {
	return NewEntityGUID(g, EntityIDParticipant)
}

// SamePrefix 两个 GUID 是否属于同一参与者
func (g GUID) SamePrefix(other GUID) bool {
	return bytes.Equal(g[:GUIDPrefixSize], other[:GUIDPrefixSize])
}

// Compare 按字节序比较
func (g GUID) Compare(other GUID) int {
	return bytes.Compare(g[:], other[:])
}

// MarshalText 实现 encoding.TextMarshaler
func (g GUID) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (g *GUID) UnmarshalText(text []byte) error {
	parsed, err := ParseGUID(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}
