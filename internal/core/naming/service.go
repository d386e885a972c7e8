package naming

import (
	"strings"

	pkgif "github.com/dep2p/go-dep2p-graph/pkg/interfaces"
	"github.com/dep2p/go-dep2p-graph/pkg/types"
)

var _ pkgif.ServicePairer = (*ServicePairer)(nil)

// ServicePairer 将请求 / 响应主题合并为逻辑服务名
//
// 请求端和响应端映射到同一服务名，类型去掉 _Request_ / _Response_ 后缀，
// 因此两端合并为一个 (服务, 类型) 对。只存在一端时同样返回。
type ServicePairer struct{}

// NewServicePairer 创建服务配对器
func NewServicePairer() *ServicePairer {
	return &ServicePairer{}
}

// IsServiceTopic 主题名是否符合服务请求 / 响应约定
func (p *ServicePairer) IsServiceTopic(topicName string) bool {
	_, ok := serviceName(topicName)
	return ok
}

// PairServices 合并条目为 服务名 -> 类型集合
func (p *ServicePairer) PairServices(entries []types.TopicEntry) types.NamesAndTypes {
	out := types.NewNamesAndTypes()
	for _, e := range entries {
		name, ok := serviceName(e.TopicName)
		if !ok {
			continue
		}
		typeName := DemangleServiceType(e.TypeName)
		if typeName == "" {
			continue
		}
		out.Add(name, typeName)
	}
	return out
}

// serviceName 从请求 / 响应主题名提取服务名
func serviceName(topicName string) (string, bool) {
	if name := stripPrefix(topicName, ServiceRequestPrefix); name != "" {
		if strings.HasSuffix(name, ServiceRequestSuffix) && len(name) > len(ServiceRequestSuffix)+1 {
			return strings.TrimSuffix(name, ServiceRequestSuffix), true
		}
		return "", false
	}
	if name := stripPrefix(topicName, ServiceResponsePrefix); name != "" {
		if strings.HasSuffix(name, ServiceResponseSuffix) && len(name) > len(ServiceResponseSuffix)+1 {
			return strings.TrimSuffix(name, ServiceResponseSuffix), true
		}
	}
	return "", false
}

// DemangleServiceType 将 pkg::srv::dds_::Type_Request_ 还原为 pkg/srv/Type
//
// 非框架类型返回空字符串。
func DemangleServiceType(name string) string {
	idx := strings.LastIndex(name, typeNamespaceSep)
	if idx < 0 {
		return ""
	}
	ns := strings.ReplaceAll(name[:idx], "::", "/")
	typeName := name[idx+len(typeNamespaceSep):]
	switch {
	case strings.HasSuffix(typeName, "_Request_"):
		typeName = strings.TrimSuffix(typeName, "_Request_")
	case strings.HasSuffix(typeName, "_Response_"):
		typeName = strings.TrimSuffix(typeName, "_Response_")
	default:
		return ""
	}
	if ns == "" || typeName == "" {
		return ""
	}
	return ns + "/" + typeName
}

// MangleServiceType 生成服务请求 / 响应类型名
func MangleServiceType(name string, request bool) string {
	suffix := "_Response_"
	if request {
		suffix = "_Request_"
	}
	idx := strings.LastIndex(name, "/")
	if idx < 0 {
		return name + suffix
	}
	return strings.ReplaceAll(name[:idx], "/", "::") + typeNamespaceSep + name[idx+1:] + suffix
}
