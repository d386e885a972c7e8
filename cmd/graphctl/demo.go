package main

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"

	dep2pgraph "github.com/dep2p/go-dep2p-graph"
	"github.com/dep2p/go-dep2p-graph/internal/core/naming"
	"github.com/dep2p/go-dep2p-graph/internal/core/nodemgr"
	"github.com/dep2p/go-dep2p-graph/internal/core/transport/memdds"
	"github.com/dep2p/go-dep2p-graph/pkg/types"
)

const (
	demoNamespace = "/demo"
	chatterTopic  = "/chatter"
	chatterType   = "std_msgs/msg/String"
	addService    = "/add_two_ints"
	addType       = "example_interfaces/srv/AddTwoInts"
)

// endpoint 演示节点上的一个本地实体
type endpoint struct {
	participant *memdds.Participant
	guid        types.GUID
}

// demo 演示域：talker 发布 /chatter，listener 订阅并提供 /add_two_ints，
// blinker 周期性地创建和删除一个额外的 /chatter 发布者。
type demo struct {
	rt    *dep2pgraph.Runtime
	nodes []*nodemgr.Node
	ents  []endpoint

	blinker *memdds.Participant
	blink   types.GUID
}

// setupDemo 创建演示节点与实体
func setupDemo(rt *dep2pgraph.Runtime) (d *demo, err error) {
	d = &demo{rt: rt}
	defer func() {
		if err != nil {
			err = multierr.Append(err, d.teardown())
		}
	}()

	talker, err := d.node("talker")
	if err != nil {
		return d, err
	}
	listener, err := d.node("listener")
	if err != nil {
		return d, err
	}
	blinker, err := d.node("blinker")
	if err != nil {
		return d, err
	}
	d.blinker = blinker

	topic := naming.MangleTopic(chatterTopic)
	typ := naming.MangleType(chatterType)
	if err := d.writer(talker, topic, typ); err != nil {
		return d, err
	}
	if err := d.reader(listener, topic, typ); err != nil {
		return d, err
	}
	if err := d.reader(listener, naming.MangleServiceRequest(addService), naming.MangleServiceType(addType, true)); err != nil {
		return d, err
	}
	if err := d.writer(listener, naming.MangleServiceResponse(addService), naming.MangleServiceType(addType, false)); err != nil {
		return d, err
	}
	return d, nil
}

func (d *demo) node(name string) (*memdds.Participant, error) {
	n, err := d.rt.CreateNode(name, demoNamespace)
	if err != nil {
		return nil, fmt.Errorf("create demo node %s: %w", name, err)
	}
	d.nodes = append(d.nodes, n)
	p, ok := n.Participant().(*memdds.Participant)
	if !ok {
		return nil, fmt.Errorf("demo node %s: unexpected participant %T", name, n.Participant())
	}
	return p, nil
}

func (d *demo) writer(p *memdds.Participant, topic, typ string) error {
	guid, err := p.CreateWriter(topic, typ)
	if err != nil {
		return fmt.Errorf("create writer %s: %w", topic, err)
	}
	d.ents = append(d.ents, endpoint{participant: p, guid: guid})
	return nil
}

func (d *demo) reader(p *memdds.Participant, topic, typ string) error {
	guid, err := p.CreateReader(topic, typ)
	if err != nil {
		return fmt.Errorf("create reader %s: %w", topic, err)
	}
	d.ents = append(d.ents, endpoint{participant: p, guid: guid})
	return nil
}

// toggle 切换 blinker 的发布者
func (d *demo) toggle() error {
	if d.blink != types.ZeroGUID {
		err := d.blinker.DeleteEntity(d.blink)
		d.blink = types.ZeroGUID
		return err
	}
	guid, err := d.blinker.CreateWriter(naming.MangleTopic(chatterTopic), naming.MangleType(chatterType))
	if err != nil {
		return err
	}
	d.blink = guid
	return nil
}

// churn 按 interval 切换 blinker，直到 ctx 取消
func (d *demo) churn(ctx context.Context, clk clock.Clock, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}
	ticker := clk.Ticker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := d.toggle(); err != nil {
				return fmt.Errorf("blink: %w", err)
			}
		}
	}
}

// teardown 删除实体后销毁节点
func (d *demo) teardown() error {
	var errs error
	if d.blink != types.ZeroGUID {
		errs = multierr.Append(errs, d.blinker.DeleteEntity(d.blink))
		d.blink = types.ZeroGUID
	}
	for i := len(d.ents) - 1; i >= 0; i-- {
		errs = multierr.Append(errs, d.ents[i].participant.DeleteEntity(d.ents[i].guid))
	}
	d.ents = nil
	for i := len(d.nodes) - 1; i >= 0; i-- {
		errs = multierr.Append(errs, d.rt.DestroyNode(d.nodes[i]))
	}
	d.nodes = nil
	return errs
}
