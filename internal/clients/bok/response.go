package bok

// statisticSearchResponse mirrors the ECOS StatisticSearch JSON envelope.
// Successful responses carry a StatisticSearch object with rows; error and
// no-data responses carry a RESULT object instead (either top-level or nested
// inside StatisticSearch, depending on the failure).
type statisticSearchResponse struct {
	StatisticSearch *statisticSearch `json:"StatisticSearch"`
	Result          *statisticResult `json:"RESULT"`
}

type statisticSearch struct {
	ListTotalCount int              `json:"list_total_count"`
	Result         *statisticResult `json:"RESULT"`
	Rows           []statisticRow   `json:"row"`
}

type statisticResult struct {
	Code    string `json:"RESULT_CODE"`
	Message string `json:"RESULT_MESSAGE"`
}

type statisticRow struct {
	DataValue string `json:"DATA_VALUE"`
	Time      string `json:"TIME"`
}

// resultCode returns the status code regardless of where the upstream put it.
func (r *statisticSearchResponse) resultCode() *statisticResult {
	if r.Result != nil {
		return r.Result
	}
	if r.StatisticSearch != nil && r.StatisticSearch.Result != nil {
		return r.StatisticSearch.Result
	}
	return nil
}

// Upstream status codes.
const (
	codeOK            = "INFO-000" // success
	codeNoData        = "INFO-200" // no rows for the range (holiday), not a failure
	codeAuthFailed    = "INFO-100" // invalid API key
	codeBadRequest1   = "ERROR-100"
	codeBadRequest2   = "ERROR-101"
	codeBadRequest3   = "ERROR-200"
	codeBadRequest4   = "ERROR-300"
	codeBadRequest5   = "ERROR-301"
	codeTimeout       = "ERROR-400" // search range too large
	codeServerError   = "ERROR-500"
	codeStorageError1 = "ERROR-600"
	codeStorageError2 = "ERROR-601"
	codeUpstreamLimit = "ERROR-602" // upstream's own rate limit
)
