package memdds

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dep2p/go-dep2p-graph/pkg/types"
)

// 公告字段名
const (
	fieldKey            = "key"
	fieldParticipantKey = "participant_key"
	fieldTopicName      = "topic_name"
	fieldTypeName       = "type_name"
)

// announcement 端点公告
type announcement struct {
	key         types.GUID
	participant types.GUID
	topicName   string
	typeName    string
}

func encodeAnnouncement(a announcement) ([]byte, error) {
	s, err := structpb.NewStruct(map[string]any{
		fieldKey:            a.key.String(),
		fieldParticipantKey: a.participant.String(),
		fieldTopicName:      a.topicName,
		fieldTypeName:       a.typeName,
	})
	if err != nil {
		return nil, fmt.Errorf("build announcement: %w", err)
	}
	b, err := proto.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal announcement: %w", err)
	}
	return b, nil
}

func decodeAnnouncement(b []byte) (announcement, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(b, &s); err != nil {
		return announcement{}, fmt.Errorf("unmarshal announcement: %w", err)
	}
	fields := s.GetFields()

	key, err := types.ParseGUID(fields[fieldKey].GetStringValue())
	if err != nil {
		return announcement{}, fmt.Errorf("announcement key: %w", err)
	}
	participant, err := types.ParseGUID(fields[fieldParticipantKey].GetStringValue())
	if err != nil {
		return announcement{}, fmt.Errorf("announcement participant key: %w", err)
	}
	return announcement{
		key:         key,
		participant: participant,
		topicName:   fields[fieldTopicName].GetStringValue(),
		typeName:    fields[fieldTypeName].GetStringValue(),
	}, nil
}

// toTopicData 按读取器类型填充内置主题数据
func (a announcement) toTopicData(kind types.EntityKind) types.BuiltinTopicData {
	if kind == types.KindSubscriber {
		return types.BuiltinTopicData{Subscription: &types.SubscriptionBuiltinTopicData{
			Key:            a.key,
			ParticipantKey: a.participant,
			TopicName:      a.topicName,
			TypeName:       a.typeName,
		}}
	}
	return types.BuiltinTopicData{Publication: &types.PublicationBuiltinTopicData{
		Key:            a.key,
		ParticipantKey: a.participant,
		TopicName:      a.topicName,
		TypeName:       a.typeName,
	}}
}
