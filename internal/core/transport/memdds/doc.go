// Package memdds 实现进程内的 DDS 风格发现域
//
// Factory 按域 ID 管理参与者。每个参与者有两个内置发现读取器
// （BuiltinPublications / BuiltinSubscriptions），域内任何参与者创建的
// 本地写入者 / 读取者都会向所有参与者（包括之后加入的）公告，
// 删除实体时公告 disposed 样本。
//
// 公告在域内以 protobuf（structpb.Struct）编码保存，读取器 Take 时解码，
// 与真实传输一样经过一次序列化边界。
//
// 每个读取器有一个分发 goroutine，在新样本到达时调用注册的监听器。
// DeleteParticipant 在返回前停止分发并等待进行中的回调结束。
//
//	f := memdds.NewFactory()
//	p, _ := f.CreateParticipant(0, types.ParticipantQos{})
//
//	pub := p.(*memdds.Participant)
//	w, _ := pub.CreateWriter("rt/chatter", "std_msgs::msg::dds_::String_")
//	defer pub.DeleteEntity(w)
package memdds
