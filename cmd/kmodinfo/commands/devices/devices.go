// SPDX-License-Identifier: Apache-2.0

package devices

import (
	"fmt"

	"github.com/hashgraph/kmodinfo/cmd/kmodinfo/commands/common"
	"github.com/hashgraph/kmodinfo/pkg/device"
	"github.com/spf13/cobra"
)

// Report lists the devices of one class on a host.
type Report struct {
	Host    device.HostInfo `yaml:"host" json:"host"`
	Devices []device.Device `yaml:"devices" json:"devices"`
}

// replaced in tests
var (
	host    = device.Host
	devices = common.Devices
)

func GetCmd() *cobra.Command {
	var flagClass string

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List devices and the modules driving them",
		Long:  "List the devices of a class together with the bound driver and the module that provides it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lister := devices()

			var list []device.Device
			var err error
			if flagClass == device.ClassBlock {
				list, err = lister.BlockDevices()
			} else {
				list, err = lister.ClassDevices(flagClass)
			}
			if err != nil {
				return err
			}

			report := &Report{Host: host(), Devices: list}
			return common.Render(cmd, report, report.Table)
		},
	}

	common.FlagClass.SetVar(cmd, &flagClass, false)

	return cmd
}

func (r *Report) Table() common.Table {
	rows := make([][]string, 0, len(r.Devices))
	for _, d := range r.Devices {
		size := "-"
		if d.SizeBytes > 0 {
			size = fmt.Sprintf("%d", d.SizeBytes)
		}
		rows = append(rows, []string{
			d.Name,
			common.OrDash(d.Driver),
			common.OrDash(d.Module),
			common.OrDash(d.Model),
			size,
		})
	}

	return common.Table{
		Title:   r.Host.String(),
		Headers: []string{"device", "driver", "module", "model", "size"},
		Rows:    rows,
	}
}
