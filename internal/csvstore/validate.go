package csvstore

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// Validate проверяет файл на повреждения перед использованием в экспорте.
// Поврежденный файл не читается: вызывающая сторона обязана перегенерировать
// содержимое из реляционного хранилища. Признаки повреждения:
//   - первая колонка заголовка — число (заголовок потерян, строка данных
//     стала заголовком де-факто);
//   - в заголовке нет ни одной ожидаемой колонки;
//   - строка данных пуста либо содержит только id при пустых остальных полях.
func (s *Store) Validate() error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("ошибка открытия CSV-файла: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	// число колонок проверяем сами, чтобы дойти до содержательных проверок
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("ошибка разбора CSV-файла: %w", err)
	}
	if len(records) == 0 {
		// пустой файл эквивалентен отсутствию данных
		return nil
	}

	header := records[0]
	if len(header) == 0 {
		return fmt.Errorf("поврежденный CSV: пустая строка заголовка")
	}
	if _, err := strconv.Atoi(header[0]); err == nil {
		return fmt.Errorf("поврежденный CSV: заголовок потерян, первая строка начинается с числа %q", header[0])
	}
	if !containsKnownColumn(header) {
		return fmt.Errorf("поврежденный CSV: заголовок не содержит ни одной ожидаемой колонки")
	}

	for i, record := range records[1:] {
		if isBlankRow(record) {
			return fmt.Errorf("поврежденный CSV: пустая строка данных %d", i+2)
		}
		if isIDOnlyRow(record) {
			return fmt.Errorf("поврежденный CSV: строка %d содержит только id", i+2)
		}
	}

	return nil
}

func containsKnownColumn(header []string) bool {
	known := make(map[string]struct{}, len(csvHeader))
	for _, col := range csvHeader {
		known[col] = struct{}{}
	}
	for _, field := range header {
		if _, ok := known[field]; ok {
			return true
		}
	}
	return false
}

func isBlankRow(record []string) bool {
	for _, field := range record {
		if field != "" {
			return false
		}
	}
	return true
}

func isIDOnlyRow(record []string) bool {
	if len(record) < 2 || record[0] == "" {
		return false
	}
	for _, field := range record[1:] {
		if field != "" {
			return false
		}
	}
	return true
}
