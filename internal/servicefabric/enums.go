package servicefabric

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"
)

// DefaultVMOS is the image used when --vm-os is not given.
const DefaultVMOS = "WindowsServer2016Datacenter"

// VMImage identifies a marketplace image.
type VMImage struct {
	Publisher string
	Offer     string
	SKU       string
	Linux     bool
}

var vmImages = map[string]VMImage{
	"WindowsServer2012R2Datacenter":             {Publisher: "MicrosoftWindowsServer", Offer: "WindowsServer", SKU: "2012-R2-Datacenter"},
	"WindowsServer2016Datacenter":               {Publisher: "MicrosoftWindowsServer", Offer: "WindowsServer", SKU: "2016-Datacenter"},
	"WindowsServer2016DatacenterwithContainers": {Publisher: "MicrosoftWindowsServer", Offer: "WindowsServer", SKU: "2016-Datacenter-with-Containers"},
	"UbuntuServer1604":                          {Publisher: "Canonical", Offer: "UbuntuServer", SKU: "16.04-LTS", Linux: true},
	"WindowsServer1709":                         {Publisher: "MicrosoftWindowsServer", Offer: "WindowsServerSemiAnnual", SKU: "Datacenter-Core-1709-smalldisk"},
	"WindowsServer1709withContainers":           {Publisher: "MicrosoftWindowsServer", Offer: "WindowsServerSemiAnnual", SKU: "Datacenter-Core-1709-with-Containers-smalldisk"},
	"WindowsServer1803withContainers":           {Publisher: "MicrosoftWindowsServer", Offer: "WindowsServerSemiAnnual", SKU: "Datacenter-Core-1803-with-Containers-smalldisk"},
	"WindowsServer1809withContainers":           {Publisher: "MicrosoftWindowsServer", Offer: "WindowsServer", SKU: "Datacenter-Core-1809-with-Containers-smalldisk"},
	"WindowsServer2019Datacenter":               {Publisher: "MicrosoftWindowsServer", Offer: "WindowsServer", SKU: "2019-Datacenter"},
	"WindowsServer2019DatacenterwithContainers": {Publisher: "MicrosoftWindowsServer", Offer: "WindowsServer", SKU: "2019-Datacenter-with-Containers"},
}

// Allowed values of the enum options, in help order.
var (
	VMOSValues          = []string{"WindowsServer2012R2Datacenter", "WindowsServer2016Datacenter", "WindowsServer2016DatacenterwithContainers", "UbuntuServer1604", "WindowsServer1709", "WindowsServer1709withContainers", "WindowsServer1803withContainers", "WindowsServer1809withContainers", "WindowsServer2019Datacenter", "WindowsServer2019DatacenterwithContainers"}
	DurabilityValues    = []string{"Bronze", "Silver", "Gold"}
	ReliabilityValues   = []string{"Bronze", "Silver", "Gold", "Platinum"}
	UpgradeModeValues   = []string{"manual", "automatic"}
	FailureActionValues = []string{"Rollback", "Manual"}
	MoveCostValues      = []string{"Zero", "Low", "Medium", "High"}
)

// ImageForOS resolves a --vm-os value.
func ImageForOS(os string) (VMImage, error) {
	img, ok := vmImages[os]
	if !ok {
		return VMImage{}, fmt.Errorf("unsupported vm os %q", os)
	}
	return img, nil
}

var minimumNodes = map[string]int{
	"Bronze":   3,
	"Silver":   5,
	"Gold":     7,
	"Platinum": 9,
}

// MinimumNodesForReliability is the smallest primary node type for a level.
// "None" (single node test clusters) needs one.
func MinimumNodesForReliability(level string) int {
	if n, ok := minimumNodes[level]; ok {
		return n
	}
	return 1
}

// ReliabilityForClusterSize picks the reliability level a new cluster gets.
// Two nodes cannot form a quorum and are rejected.
func ReliabilityForClusterSize(size int) (string, error) {
	switch {
	case size == 1:
		return "None", nil
	case size < 1 || size == 2:
		return "", fmt.Errorf("invalid cluster size %d: use 1 for a test cluster or at least 3", size)
	case size <= 4:
		return "Bronze", nil
	case size <= 6:
		return "Silver", nil
	case size <= 8:
		return "Gold", nil
	default:
		return "Platinum", nil
	}
}

// durabilityOrder ranks durability levels for downgrade checks.
var durabilityOrder = map[string]int{"Bronze": 0, "Silver": 1, "Gold": 2}

// checkDurabilityChange rejects downgrades from Silver or Gold to Bronze.
func checkDurabilityChange(from, to string) error {
	if from == "" {
		return nil
	}
	if durabilityOrder[from] > durabilityOrder["Bronze"] && durabilityOrder[to] == durabilityOrder["Bronze"] {
		return fmt.Errorf("durability cannot be downgraded from %s to %s", from, to)
	}
	return nil
}

// goldSKUs are the VM sizes that provide a full node, required by Gold durability.
var goldSKUs = sets.New(
	"Standard_D15_v2", "Standard_G5", "Standard_E64_v3", "Standard_E64s_v3",
	"Standard_GS5", "Standard_M128ms", "Standard_DS15_v2",
)

// checkDurabilitySKU requires a full-node VM size for Gold durability.
func checkDurabilitySKU(level, sku string) error {
	if level != "Gold" || goldSKUs.Has(sku) {
		return nil
	}
	return fmt.Errorf("durability Gold requires a full node VM size (%s), got %q", strings.Join(sets.List(goldSKUs), ", "), sku)
}
