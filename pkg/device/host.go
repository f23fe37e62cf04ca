// SPDX-License-Identifier: Apache-2.0

package device

import (
	"fmt"

	"github.com/zcalusic/sysinfo"
)

// HostInfo identifies the machine and the kernel it runs.
type HostInfo struct {
	Hostname      string `yaml:"hostname" json:"hostname"`
	OSName        string `yaml:"osName" json:"osName"`
	OSVendor      string `yaml:"osVendor" json:"osVendor"`
	OSVersion     string `yaml:"osVersion" json:"osVersion"`
	KernelRelease string `yaml:"kernelRelease" json:"kernelRelease"`
	KernelVersion string `yaml:"kernelVersion" json:"kernelVersion"`
	Architecture  string `yaml:"architecture" json:"architecture"`
}

func (h HostInfo) String() string {
	return fmt.Sprintf("%s: %s %s, kernel %s (%s)", h.Hostname, h.OSVendor, h.OSVersion, h.KernelRelease, h.Architecture)
}

// Host gathers HostInfo for the running system. Fields that cannot be read are empty.
func Host() HostInfo {
	var si sysinfo.SysInfo
	si.GetSysInfo()

	return hostInfoFrom(si)
}

func hostInfoFrom(si sysinfo.SysInfo) HostInfo {
	return HostInfo{
		Hostname:      si.Node.Hostname,
		OSName:        si.OS.Name,
		OSVendor:      si.OS.Vendor,
		OSVersion:     si.OS.Version,
		KernelRelease: si.Kernel.Release,
		KernelVersion: si.Kernel.Version,
		Architecture:  si.Kernel.Architecture,
	}
}
