package payloads

// CSVExportPayload представляет задание на перегенерацию CSV-зеркала владельца
// из БД и выгрузку результата в объектное хранилище.
type CSVExportPayload struct {
	OwnerID int64 `json:"owner_id"`
}
