package toolbar

// Capability is what a tool badge stands for, derived from its icon tag.
type Capability string

const (
	CapabilityWebSearch Capability = "web_search"
	CapabilityReasoning Capability = "reasoning"
	CapabilityTools     Capability = "tools"
	CapabilityPlugins   Capability = "plugins"
)

const fallbackCapability = CapabilityTools

var iconCapabilities = map[string]Capability{
	"Globe":  CapabilityWebSearch,
	"Brain":  CapabilityReasoning,
	"Wrench": CapabilityTools,
	"Puzzle": CapabilityPlugins,
}

// CapabilityFor maps an icon tag to its capability. Unknown tags map to
// CapabilityTools.
func CapabilityFor(icon string) Capability {
	if capability, ok := iconCapabilities[icon]; ok {
		return capability
	}
	return fallbackCapability
}
