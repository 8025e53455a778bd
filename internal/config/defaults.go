package config

import "path/filepath"

// applyDefaults fills in anything the config file left unset.
func applyDefaults(s *Settings) {
	if s.Project == "" {
		s.Project = "default"
	}
	if len(s.Import.Patterns) == 0 {
		s.Import.Patterns = []string{".dcm", ".dicom"}
	}
	if s.Storage.DatabasePath == "" && s.Storage.Root != "" {
		s.Storage.DatabasePath = filepath.Join(s.Storage.Root, "dicommanager.sqlite")
	}
	if len(s.AgeBreakdown) == 0 {
		s.AgeBreakdown = DefaultAgeBreakdown()
	}
	if s.Log.Path == "" {
		s.Log.Path = "dicommanager.log"
	}
}

// DefaultAgeBreakdown returns the standard pediatric-weighted age bucket
// table: weekly through the first month, monthly through age two, then
// progressively coarser spans. Ranges are inclusive on both ends.
func DefaultAgeBreakdown() []AgeRange {
	return []AgeRange{
		{0, 6, "day0000-0006_week0_year0"},
		{7, 13, "day0007-0013_week1_year0"},
		{14, 20, "day0014-0020_week2_year0"},
		{21, 27, "day0021-0027_week3_year0"},
		{28, 59, "day0028-0059_month1_year0"},
		{60, 89, "day0060-0089_month2_year0"},
		{90, 119, "day0090-0119_month3_year0"},
		{120, 149, "day0120-0149_month4_year0"},
		{150, 179, "day0150-0179_month5_year0"},
		{180, 209, "day0180-0209_month6_year0"},
		{210, 239, "day0210-0239_month7_year0"},
		{240, 269, "day0240-0269_month8_year0"},
		{270, 299, "day0270-0299_month9_year0"},
		{300, 329, "day0300-0329_month10_year0"},
		{330, 364, "day0330-0364_month11_year0"},
		{365, 394, "day0365-0394_month12_year1"},
		{395, 424, "day0395-0424_month13_year1"},
		{425, 454, "day0425-0454_month14_year1"},
		{455, 484, "day0455-0484_month15_year1"},
		{485, 514, "day0485-0514_month16_year1"},
		{515, 544, "day0515-0544_month17_year1"},
		{545, 574, "day0545-0574_month18_year1"},
		{575, 604, "day0575-0604_month19_year1"},
		{605, 634, "day0605-0634_month20_year1"},
		{635, 664, "day0635-0664_month21_year1"},
		{665, 694, "day0665-0694_month22_year1"},
		{695, 729, "day0695-0729_month23_year1"},
		{730, 819, "day0730-0819_month24-26_year2"},
		{820, 909, "day0820-0909_month27-29_year2"},
		{910, 999, "day0910-0999_month30-32_year2"},
		{1000, 1094, "day1000-1094_month33-35_year2"},
		{1095, 1184, "day1095-1184_month36-38_year3"},
		{1185, 1274, "day1185-1274_month39-41_year3"},
		{1275, 1364, "day1275-1364_month42-44_year3"},
		{1365, 1459, "day1365-1459_month45-47_year3"},
		{1460, 1824, "day1460-1824_month48-59_year4"},
		{1825, 2190, "day1825-2190_month60-71_year5"},
		{2191, 3650, "day2191-3650_month72-120_year6-10"},
		{3651, 18250, "day3651-18250_month121-600_year11-50"},
		{18251, 36500, "day18251-36500_month601-1200_year51-100"},
		{36501, 1000000, "day36501-up_month1200-up_year100-up"},
	}
}

// defaultConfig is written on first run when no config file is found.
const defaultConfig = `# dicommanager-go configuration

debug: false              # print debug messages

# Ownership scope for all operations. A series imported under one project
# may later be claimed by another; storage is shared between them.
project: default

storage:
  root: ""                # root directory of managed storage, must exist
  databasepath: ""        # defaults to <root>/dicommanager.sqlite

import:
  patterns:               # file name suffixes treated as DICOM
    - .dcm
    - .dicom

# Map of canonical institution name to substrings that identify it, used
# to consolidate inconsistent scanner-reported names into one directory.
# institutions:
#   MGH:
#     - mgh
#     - massachusetts general
#     - mass general
#     - mass. general
institutions: {}

# agebreakdown:           # custom age bucket table; built-in table used
#   - minday: 0           # when omitted
#     maxday: 6
#     name: day0000-0006_week0_year0

log:
  enabled: true           # true to write a JSON catalogue log
  path: dicommanager.log  # path to log file
`
