/*
 * MIT License
 *
 * Copyright (c) 2026 Nguyen Thanh Phuong
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package commands

import (
	"fmt"
	"os"

	"github.com/phuonguno98/unopulse/internal/devices"
	"github.com/spf13/cobra"
)

var listDevicesCmd = &cobra.Command{
	Use:   "list-devices",
	Short: "List drives, network interfaces and the processor",
	Long: `List the drives, network interfaces and processor UnoPulse can see.
Drives marked "no" in the MONITORED column are skipped by the storage panel,
and interfaces marked "no" in the COUNTED column are left out of throughput.

Examples:
  # List all available devices
  unopulse list-devices`,
	RunE: runListDevices,
}

func init() {
	rootCmd.AddCommand(listDevicesCmd)
}

func runListDevices(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "\n========================================")
	fmt.Fprintln(out, "   UnoPulse - Available Devices")
	fmt.Fprintln(out, "========================================")

	cpuInfo, err := devices.Processor()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading processor info: %v\n", err)
	} else {
		fmt.Fprint(out, devices.FormatProcessor(cpuInfo))
	}

	drives, err := devices.ListDrives()
	switch {
	case err != nil:
		fmt.Fprintf(os.Stderr, "Error listing drives: %v\n", err)
	case len(drives) == 0:
		fmt.Fprintln(out, "\nNo drives found.")
	default:
		fmt.Fprint(out, devices.FormatDrivesTable(drives))
	}

	interfaces, err := devices.ListInterfaces()
	switch {
	case err != nil:
		fmt.Fprintf(os.Stderr, "Error listing network interfaces: %v\n", err)
	case len(interfaces) == 0:
		fmt.Fprintln(out, "\nNo network interfaces found.")
	default:
		fmt.Fprint(out, devices.FormatInterfacesTable(interfaces))
	}

	fmt.Fprintln(out, "\nNotes:")
	fmt.Fprintln(out, "  - Drives without a filesystem type and optical drives are not monitored")
	fmt.Fprintln(out, "  - Loopback interfaces are not counted toward upload/download rates")
	fmt.Fprintln(out)

	return nil
}
