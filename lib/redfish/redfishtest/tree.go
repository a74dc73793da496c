// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package redfishtest

// Ref builds a {"@odata.id": url} reference.
func Ref(url string) map[string]any {
	return map[string]any{"@odata.id": url}
}

// Collection builds a collection payload listing members.
func Collection(url string, members ...string) map[string]any {
	refs := make([]any, 0, len(members))
	for _, member := range members {
		refs = append(refs, Ref(member))
	}
	return map[string]any{
		"@odata.id":           url,
		"Members":             refs,
		"Members@odata.count": len(members),
	}
}

// SingleSystem populates c with a one-system, one-chassis controller
// carrying every component node-proxy collects by default.
func SingleSystem(c *Controller) {
	c.Set("/redfish/v1/", map[string]any{
		"@odata.id":     "/redfish/v1/",
		"Systems":       Ref("/redfish/v1/Systems"),
		"Chassis":       Ref("/redfish/v1/Chassis"),
		"UpdateService": Ref("/redfish/v1/UpdateService"),
		"Managers":      Ref("/redfish/v1/Managers"),
		"Links":         map[string]any{"Sessions": Ref("/redfish/v1/SessionService/Sessions")},
	})

	c.Set("/redfish/v1/Systems", Collection("/redfish/v1/Systems", "/redfish/v1/Systems/1"))
	c.Set("/redfish/v1/Systems/1", map[string]any{
		"@odata.id":    "/redfish/v1/Systems/1",
		"Id":           "1",
		"SerialNumber": "SN-0001",
	})
	c.Set("/redfish/v1/Systems/1/Bios", map[string]any{"Id": "Bios", "Name": "BIOS", "Version": "2.1.0"})
	c.Set("/redfish/v1/Systems/1/Memory", Collection("/redfish/v1/Systems/1/Memory", "/redfish/v1/Systems/1/Memory/DIMM0"))
	c.Set("/redfish/v1/Systems/1/Memory/DIMM0", map[string]any{
		"Id": "DIMM0", "Description": "DIMM A1", "MemoryDeviceType": "DDR4",
		"CapacityMiB": 16384, "Status": map[string]any{"Health": "OK", "State": "Enabled"},
	})
	c.Set("/redfish/v1/Systems/1/Processors", Collection("/redfish/v1/Systems/1/Processors", "/redfish/v1/Systems/1/Processors/CPU0"))
	c.Set("/redfish/v1/Systems/1/Processors/CPU0", map[string]any{
		"Id": "CPU0", "Description": "CPU", "TotalCores": 16, "TotalThreads": 32,
		"ProcessorType": "CPU", "Model": "EPYC", "Manufacturer": "AMD",
		"Status": map[string]any{"Health": "OK"},
	})
	c.Set("/redfish/v1/Systems/1/EthernetInterfaces", Collection("/redfish/v1/Systems/1/EthernetInterfaces", "/redfish/v1/Systems/1/EthernetInterfaces/NIC.1"))
	c.Set("/redfish/v1/Systems/1/EthernetInterfaces/NIC.1", map[string]any{
		"Id": "NIC.1", "Description": "Embedded NIC", "Name": "eno1", "SpeedMbps": 25000,
		"Status": map[string]any{"Health": "OK"},
	})
	c.Set("/redfish/v1/Systems/1/NetworkInterfaces", Collection("/redfish/v1/Systems/1/NetworkInterfaces"))
	c.Set("/redfish/v1/Systems/1/Storage", Collection("/redfish/v1/Systems/1/Storage", "/redfish/v1/Systems/1/Storage/RAID.1"))
	c.Set("/redfish/v1/Systems/1/Storage/RAID.1", map[string]any{
		"Id":     "RAID.1",
		"Drives": []any{Ref("/redfish/v1/Systems/1/Storage/RAID.1/Drives/Disk.0")},
	})
	c.Set("/redfish/v1/Systems/1/Storage/RAID.1/Drives/Disk.0", map[string]any{
		"@odata.id": "/redfish/v1/Systems/1/Storage/RAID.1/Drives/Disk.0",
		"Id":        "Disk.0", "Description": "Disk 0", "CapacityBytes": 960197124096,
		"Model": "SSD", "Protocol": "SATA", "LocationIndicatorActive": false,
		"SerialNumber": "D0", "Status": map[string]any{"Health": "OK"},
		"PhysicalLocation": map[string]any{"PartLocation": map[string]any{"LocationOrdinalValue": 0}},
	})

	c.Set("/redfish/v1/Chassis", Collection("/redfish/v1/Chassis", "/redfish/v1/Chassis/1"))
	c.Set("/redfish/v1/Chassis/1", map[string]any{"Id": "1", "IndicatorLED": "Off", "LocationIndicatorActive": false})
	c.Set("/redfish/v1/Chassis/1/PowerSubsystem", map[string]any{"Id": "PowerSubsystem"})
	c.Set("/redfish/v1/Chassis/1/PowerSubsystem/PowerSupplies", Collection("/redfish/v1/Chassis/1/PowerSubsystem/PowerSupplies", "/redfish/v1/Chassis/1/PowerSubsystem/PowerSupplies/PSU0"))
	c.Set("/redfish/v1/Chassis/1/PowerSubsystem/PowerSupplies/PSU0", map[string]any{
		"Id": "PSU0", "Name": "PSU 0", "Model": "PWR", "Manufacturer": "Delta",
		"Status": map[string]any{"Health": "OK"},
	})
	c.Set("/redfish/v1/Chassis/1/Thermal", map[string]any{
		"Id": "Thermal",
		"Fans": []any{
			map[string]any{"MemberId": "0", "Name": "Fan0", "PhysicalContext": "SystemBoard", "Status": map[string]any{"Health": "OK"}},
		},
	})

	c.Set("/redfish/v1/UpdateService", map[string]any{"Id": "UpdateService"})
	c.Set("/redfish/v1/UpdateService/FirmwareInventory", Collection("/redfish/v1/UpdateService/FirmwareInventory", "/redfish/v1/UpdateService/FirmwareInventory/BIOS"))
	c.Set("/redfish/v1/UpdateService/FirmwareInventory/BIOS", map[string]any{
		"Id": "BIOS", "Name": "BIOS", "Description": "System BIOS", "ReleaseDate": nil,
		"Version": "2.1.0", "Updateable": true, "Status": map[string]any{"Health": "OK"},
	})

	c.Set("/redfish/v1/Managers", Collection("/redfish/v1/Managers", "/redfish/v1/Managers/iDRAC.Embedded.1"))
}

// TwoSystems populates c like SingleSystem and adds a second system
// with its own serial number, memory and drive. The second system has
// no Processors, EthernetInterfaces or NetworkInterfaces.
func TwoSystems(c *Controller) {
	SingleSystem(c)

	c.Set("/redfish/v1/Systems", Collection("/redfish/v1/Systems", "/redfish/v1/Systems/1", "/redfish/v1/Systems/2"))
	c.Set("/redfish/v1/Systems/2", map[string]any{
		"@odata.id":    "/redfish/v1/Systems/2",
		"Id":           "2",
		"SerialNumber": "SN-0002",
	})
	c.Set("/redfish/v1/Systems/2/Bios", map[string]any{"Id": "Bios", "Name": "BIOS", "Version": "2.2.0"})
	c.Set("/redfish/v1/Systems/2/Memory", Collection("/redfish/v1/Systems/2/Memory", "/redfish/v1/Systems/2/Memory/DIMM0"))
	c.Set("/redfish/v1/Systems/2/Memory/DIMM0", map[string]any{
		"Id": "DIMM0", "Description": "DIMM B1", "MemoryDeviceType": "DDR5",
		"CapacityMiB": 32768, "Status": map[string]any{"Health": "OK", "State": "Enabled"},
	})
	c.Set("/redfish/v1/Systems/2/Storage", Collection("/redfish/v1/Systems/2/Storage", "/redfish/v1/Systems/2/Storage/RAID.2"))
	c.Set("/redfish/v1/Systems/2/Storage/RAID.2", map[string]any{
		"Id":     "RAID.2",
		"Drives": []any{Ref("/redfish/v1/Systems/2/Storage/RAID.2/Drives/Disk.1")},
	})
	c.Set("/redfish/v1/Systems/2/Storage/RAID.2/Drives/Disk.1", map[string]any{
		"@odata.id": "/redfish/v1/Systems/2/Storage/RAID.2/Drives/Disk.1",
		"Id":        "Disk.1", "Description": "Disk 1", "CapacityBytes": 1920383410176,
		"Model": "NVMe", "Protocol": "NVMe", "SerialNumber": "D1",
		"Status": map[string]any{"Health": "OK"},
	})
}
