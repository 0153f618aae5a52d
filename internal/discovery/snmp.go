package discovery

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"

	"cupsdestgolang/internal/model"
)

// Printer-MIB columns for the supplies table.
const (
	oidSupplyDescr = ".1.3.6.1.2.1.43.11.1.1.6.1"
	oidSupplyMax   = ".1.3.6.1.2.1.43.11.1.1.8.1"
	oidSupplyLevel = ".1.3.6.1.2.1.43.11.1.1.9.1"

	oidSysName     = ".1.3.6.1.2.1.1.5.0"
	oidSysLocation = ".1.3.6.1.2.1.1.6.0"
	oidSysDescr    = ".1.3.6.1.2.1.1.1.0"
)

// SysInfo is the identity triple read from a device's system group.
type SysInfo struct {
	Name     string
	Location string
	Descr    string
}

// QuerySysInfo reads the SNMP system group from the host named by an
// snmp:// or plain host[:port] target.
func QuerySysInfo(target, community string) (SysInfo, error) {
	params := newSNMPParams(target, community)
	if err := params.Connect(); err != nil {
		return SysInfo{}, err
	}
	defer params.Conn.Close()
	return sysInfoWith(params)
}

// QuerySupplies walks the Printer-MIB supplies table and summarizes the
// marker levels: ok, low (10% or less) or empty.
func QuerySupplies(target, community string) (model.SupplyStatus, error) {
	params := newSNMPParams(target, community)
	if err := params.Connect(); err != nil {
		return model.SupplyStatus{State: "unknown"}, err
	}
	defer params.Conn.Close()

	details := map[string]string{}
	if info, err := sysInfoWith(params); err == nil && info.Name != "" {
		details["sysName"] = info.Name
	}

	desc := map[string]string{}
	maxCap := map[string]int{}
	level := map[string]int{}
	_ = params.BulkWalk(oidSupplyDescr, func(pdu gosnmp.SnmpPDU) error {
		if idx := snmpIndex(pdu.Name, oidSupplyDescr); idx != "" {
			if s, ok := pduString(pdu.Value); ok {
				desc[idx] = s
			}
		}
		return nil
	})
	_ = params.BulkWalk(oidSupplyMax, func(pdu gosnmp.SnmpPDU) error {
		if idx := snmpIndex(pdu.Name, oidSupplyMax); idx != "" {
			if n, ok := snmpToInt(pdu.Value); ok {
				maxCap[idx] = n
			}
		}
		return nil
	})
	_ = params.BulkWalk(oidSupplyLevel, func(pdu gosnmp.SnmpPDU) error {
		if idx := snmpIndex(pdu.Name, oidSupplyLevel); idx != "" {
			if n, ok := snmpToInt(pdu.Value); ok {
				level[idx] = n
			}
		}
		return nil
	})

	status := summarizeSupplies(desc, maxCap, level, details)
	status.UpdatedAt = time.Now()
	return status, nil
}

func summarizeSupplies(desc map[string]string, maxCap, level map[string]int, details map[string]string) model.SupplyStatus {
	state := "unknown"
	lowest := 101
	for idx, lvl := range level {
		key := "supply." + idx
		if d := desc[idx]; d != "" {
			details[key+".desc"] = d
		}
		details[key+".level"] = strconv.Itoa(lvl)
		if max, ok := maxCap[idx]; ok {
			details[key+".max"] = strconv.Itoa(max)
			if max > 0 && lvl >= 0 {
				percent := (lvl * 100) / max
				details[key+".percent"] = strconv.Itoa(percent)
				if percent < lowest {
					lowest = percent
				}
			}
		}
	}
	if len(level) > 0 {
		state = "ok"
		if lowest <= 10 {
			state = "low"
		}
		if lowest == 0 {
			state = "empty"
		}
	}
	return model.SupplyStatus{State: state, Details: details}
}

func newSNMPParams(target, community string) *gosnmp.GoSNMP {
	host, port := splitSNMPTarget(target)
	if community == "" {
		community = "public"
	}
	params := &gosnmp.GoSNMP{
		Target:    host,
		Port:      161,
		Community: community,
		Version:   gosnmp.Version2c,
		Timeout:   2 * time.Second,
		Retries:   1,
	}
	if port != "" {
		if p, err := strconv.Atoi(port); err == nil && p > 0 {
			params.Port = uint16(p)
		}
	}
	return params
}

func splitSNMPTarget(target string) (string, string) {
	target = strings.TrimSpace(target)
	if strings.Contains(target, "://") {
		if u, err := url.Parse(target); err == nil && u.Hostname() != "" {
			return u.Hostname(), u.Port()
		}
	}
	if host, port, ok := strings.Cut(target, ":"); ok && host != "" {
		return host, port
	}
	return target, ""
}

func sysInfoWith(params *gosnmp.GoSNMP) (SysInfo, error) {
	result, err := params.Get([]string{oidSysName, oidSysLocation, oidSysDescr})
	if err != nil {
		return SysInfo{}, err
	}
	info := SysInfo{}
	for _, v := range result.Variables {
		s, ok := pduString(v.Value)
		if !ok {
			continue
		}
		switch v.Name {
		case oidSysName:
			info.Name = s
		case oidSysLocation:
			info.Location = s
		case oidSysDescr:
			info.Descr = s
		}
	}
	return info, nil
}

func pduString(val any) (string, bool) {
	switch v := val.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	default:
		return "", false
	}
}

func snmpIndex(name, base string) string {
	if strings.HasPrefix(name, base+".") {
		return strings.TrimPrefix(name, base+".")
	}
	if strings.HasPrefix(name, base) {
		return strings.TrimPrefix(name, base)
	}
	return ""
}

func snmpToInt(val any) (int, bool) {
	if val == nil {
		return 0, false
	}
	if bi := gosnmp.ToBigInt(val); bi != nil {
		return int(bi.Int64()), true
	}
	return 0, false
}
