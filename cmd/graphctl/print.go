package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/dep2p/go-dep2p-graph/internal/core/nodemgr"
)

// printGraph 以观察节点的视角打印发现图
func printGraph(w io.Writer, m *nodemgr.Manager, observer *nodemgr.Node) error {
	nodes, err := m.NodeNames(observer)
	if err != nil {
		return fmt.Errorf("node names: %w", err)
	}
	topics, err := m.TopicNamesAndTypes(observer, true)
	if err != nil {
		return fmt.Errorf("topic names: %w", err)
	}
	services, err := m.ServiceNamesAndTypes(observer)
	if err != nil {
		return fmt.Errorf("service names: %w", err)
	}
	stats, err := m.Stats(observer)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "== graph @ %s (triggers=%d) ==\n", observer.FullyQualifiedName(), stats.Triggers)

	fqns := make([]string, 0, len(nodes))
	for _, n := range nodes {
		fqns = append(fqns, nodemgr.FullyQualified(n.Namespace, n.Name))
	}
	sort.Strings(fqns)
	fmt.Fprintf(tw, "nodes (%d):\n", len(fqns))
	for _, fqn := range fqns {
		fmt.Fprintf(tw, "  %s\n", fqn)
	}

	fmt.Fprintf(tw, "topics (%d):\n", len(topics))
	for _, name := range topics.Names() {
		pubs, err := m.CountPublishers(observer, name)
		if err != nil {
			return fmt.Errorf("count publishers %s: %w", name, err)
		}
		subs, err := m.CountSubscribers(observer, name)
		if err != nil {
			return fmt.Errorf("count subscribers %s: %w", name, err)
		}
		fmt.Fprintf(tw, "  %s\t%s\tpubs=%d\tsubs=%d\n",
			name, strings.Join(topics.Types(name), ","), pubs, subs)
	}

	fmt.Fprintf(tw, "services (%d):\n", len(services))
	for _, name := range services.Names() {
		fmt.Fprintf(tw, "  %s\t%s\n", name, strings.Join(services.Types(name), ","))
	}
	return tw.Flush()
}
