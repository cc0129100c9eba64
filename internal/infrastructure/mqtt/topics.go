package mqtt

import "fmt"

// Topic prefixes for the Gray Logic side of the bridge. Panel topics use
// their own namespace and are built by the protocol package.
const (
	// TopicPrefixCore is the base for all core topics.
	TopicPrefixCore = "graylogic/core"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "graylogic/system"
)

// Topics provides builders for Gray Logic MQTT topics.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.CoreDeviceState("light-living-main")
//	// Returns: "graylogic/core/device/light-living-main/state"
type Topics struct{}

// CoreDeviceState returns the canonical device state topic.
//
// Example: graylogic/core/device/light-living-main/state
func (Topics) CoreDeviceState(deviceID string) string {
	return fmt.Sprintf("%s/device/%s/state", TopicPrefixCore, deviceID)
}

// CoreDeviceCommand returns the topic used to ask core to change a device.
//
// Example: graylogic/core/device/light-living-main/set
func (Topics) CoreDeviceCommand(deviceID string) string {
	return fmt.Sprintf("%s/device/%s/set", TopicPrefixCore, deviceID)
}

// CorePanelTrigger returns the topic automation triggers are published on.
//
// Example: graylogic/core/panel/panel-hall/trigger/button_on
func (Topics) CorePanelTrigger(panelID, kind string) string {
	return fmt.Sprintf("%s/panel/%s/trigger/%s", TopicPrefixCore, panelID, kind)
}

// SystemStatus returns the bridge status topic used for online/offline and LWT.
//
// Example: graylogic/system/panels/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/panels/status", TopicPrefixSystem)
}

// AllCoreDeviceStates returns a pattern matching every canonical device state.
//
// Pattern: graylogic/core/device/+/state
func (Topics) AllCoreDeviceStates() string {
	return fmt.Sprintf("%s/device/+/state", TopicPrefixCore)
}
