package neighbors

// stateAdjacency is the state-to-neighbor-states FIPS adjacency table,
// reproduced verbatim from the original implementation's STATE_NEIGHBORS
// constant rather than re-derived from boundary geometry, since land
// borders between states don't change.
var stateAdjacency = map[string][]string{
	"01": {"12", "13", "28", "47"},             // AL: FL, GA, MS, TN
	"02": {},                                   // AK: (no land borders)
	"04": {"06", "08", "35", "32", "49"},       // AZ: CA, CO, NM, NV, UT
	"05": {"22", "29", "28", "40", "47", "48"}, // AR: LA, MO, MS, OK, TN, TX
	"06": {"04", "32", "41"},                   // CA: AZ, NV, OR
	"08": {"04", "20", "31", "35", "40", "49", "56"}, // CO: AZ, KS, NE, NM, OK, UT, WY
	"09": {"25", "36", "44"},                         // CT: MA, NY, RI
	"10": {"24", "34", "42"},                         // DE: MD, NJ, PA
	"12": {"01", "13"},                               // FL: AL, GA
	"13": {"01", "12", "37", "45", "47"},             // GA: AL, FL, NC, SC, TN
	"15": {},                                         // HI: (no land borders)
	"16": {"30", "32", "41", "49", "53", "56"},       // ID: MT, NV, OR, UT, WA, WY
	"17": {"18", "19", "21", "29", "55"},             // IL: IN, IA, KY, MO, WI
	"18": {"17", "21", "26", "39"},                   // IN: IL, KY, MI, OH
	"19": {"17", "27", "29", "31", "46", "55"},       // IA: IL, MN, MO, NE, SD, WI
	"20": {"08", "29", "31", "40"},                   // KS: CO, MO, NE, OK
	"21": {"17", "18", "29", "39", "47", "51", "54"}, // KY: IL, IN, MO, OH, TN, VA, WV
	"22": {"05", "28", "48"},                         // LA: AR, MS, TX
	"23": {"33"},                                     // ME: NH
	"24": {"10", "42", "51", "54", "11"},             // MD: DE, PA, VA, WV, DC
	"25": {"09", "33", "36", "44", "50"},             // MA: CT, NH, NY, RI, VT
	"26": {"18", "39", "55"},                         // MI: IN, OH, WI
	"27": {"19", "38", "46", "55"},                   // MN: IA, ND, SD, WI
	"28": {"01", "05", "22", "47"},                   // MS: AL, AR, LA, TN
	"29": {"05", "17", "19", "20", "21", "31", "40", "47"}, // MO: AR, IL, IA, KS, KY, NE, OK, TN
	"30": {"16", "38", "46", "56"},                         // MT: ID, ND, SD, WY
	"31": {"08", "19", "20", "29", "46", "56"},             // NE: CO, IA, KS, MO, SD, WY
	"32": {"04", "06", "16", "41", "49"},                   // NV: AZ, CA, ID, OR, UT
	"33": {"23", "25", "50"},                               // NH: ME, MA, VT
	"34": {"10", "36", "42"},                               // NJ: DE, NY, PA
	"35": {"04", "08", "40", "48", "49"},                   // NM: AZ, CO, OK, TX, UT
	"36": {"09", "25", "34", "42", "50"},                   // NY: CT, MA, NJ, PA, VT
	"37": {"13", "45", "47", "51"},                         // NC: GA, SC, TN, VA
	"38": {"27", "30", "46"},                               // ND: MN, MT, SD
	"39": {"18", "21", "26", "42", "54"},                   // OH: IN, KY, MI, PA, WV
	"40": {"05", "08", "20", "29", "35", "48"},             // OK: AR, CO, KS, MO, NM, TX
	"41": {"06", "16", "32", "53"},                         // OR: CA, ID, NV, WA
	"42": {"10", "24", "34", "36", "39", "54"},             // PA: DE, MD, NJ, NY, OH, WV
	"44": {"09", "25"},                                     // RI: CT, MA
	"45": {"13", "37"},                                     // SC: GA, NC
	"46": {"19", "27", "30", "31", "38", "56"},             // SD: IA, MN, MT, NE, ND, WY
	"47": {"01", "05", "13", "21", "28", "29", "37", "51"}, // TN: AL, AR, GA, KY, MS, MO, NC, VA
	"48": {"05", "22", "35", "40"},                         // TX: AR, LA, NM, OK
	"49": {"04", "08", "16", "35", "32", "56"},             // UT: AZ, CO, ID, NM, NV, WY
	"50": {"25", "33", "36"},                               // VT: MA, NH, NY
	"51": {"21", "24", "37", "47", "54", "11"},             // VA: KY, MD, NC, TN, WV, DC
	"53": {"16", "41"},                                     // WA: ID, OR
	"54": {"21", "24", "39", "42", "51"},                   // WV: KY, MD, OH, PA, VA
	"55": {"17", "19", "26", "27"},                         // WI: IL, IA, MI, MN
	"56": {"08", "16", "30", "31", "46", "49"},             // WY: CO, ID, MT, NE, SD, UT
	"11": {"24", "51"},                                     // DC: MD, VA
}
