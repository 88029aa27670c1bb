// Package enrich fills gaps in an info document from local data.
package enrich

import (
	"fmt"
	"net"
	"os"

	"github.com/oschwald/maxminddb-golang"

	"github.com/akl7777777/ippure-info/internal/model"
)

type Logger interface {
	Info(s string)
	Warn(s string)
	Debug(s string)
}

type asnReader interface {
	Lookup(ip net.IP, result any) error
	Close() error
}

// LocalDB handles GeoLite2-ASN MMDB lookups.
type LocalDB struct {
	reader asnReader
	logger Logger
}

// mmdbRecord maps the fields in a GeoLite2-ASN MMDB.
type mmdbRecord struct {
	AutonomousSystemNumber       int64  `maxminddb:"autonomous_system_number"`
	AutonomousSystemOrganization string `maxminddb:"autonomous_system_organization"`
}

// NewLocalDB opens the MMDB file at path. It returns nil when path is
// empty or the file cannot be opened, which disables enrichment.
func NewLocalDB(path string, logger Logger) *LocalDB {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Warn(fmt.Sprintf("[enrich] MMDB file not found at %s, enrichment disabled", path))
		return nil
	}

	reader, err := maxminddb.Open(path)
	if err != nil {
		logger.Warn(fmt.Sprintf("[enrich] failed to open MMDB: %v, enrichment disabled", err))
		return nil
	}

	logger.Info("[enrich] loaded MMDB: " + path)
	return &LocalDB{reader: reader, logger: logger}
}

// Enrich fills a missing ASN or AS organization from the MMDB and marks
// addresses of known datacenter ASNs as non residential when the API
// did not say. Values already present are never overwritten.
func (db *LocalDB) Enrich(info *model.InfoResponse) {
	if db == nil || info.IP == nil {
		return
	}

	if info.ASN == nil || *info.ASN == 0 || model.StringValue(info.ASOrganization) == "" {
		db.fillASN(info)
	}

	if info.IsResidential == nil && info.ASN != nil {
		if org, ok := IsKnownDatacenterASN(*info.ASN); ok {
			isResidential := false
			info.IsResidential = &isResidential
			db.logger.Debug(fmt.Sprintf("[enrich] AS%d is datacenter (%s)", *info.ASN, org))
		}
	}
}

func (db *LocalDB) fillASN(info *model.InfoResponse) {
	ip := net.ParseIP(*info.IP)
	if ip == nil {
		db.logger.Debug("[enrich] not an IP address: " + *info.IP)
		return
	}

	var record mmdbRecord
	err := db.reader.Lookup(ip, &record)
	if err != nil {
		db.logger.Warn(fmt.Sprintf("[enrich] MMDB lookup failed for %s: %v", ip, err))
		return
	}

	if (info.ASN == nil || *info.ASN == 0) && record.AutonomousSystemNumber != 0 {
		asn := record.AutonomousSystemNumber
		info.ASN = &asn
	}
	if model.StringValue(info.ASOrganization) == "" && record.AutonomousSystemOrganization != "" {
		org := record.AutonomousSystemOrganization
		info.ASOrganization = &org
	}
}

// Close closes the MMDB reader.
func (db *LocalDB) Close() error {
	if db == nil || db.reader == nil {
		return nil
	}
	return db.reader.Close()
}
