package warehouse

import (
	"context"
	"fmt"
	"strings"

	"medwarehouse/pkg/database"
	sqlschema "medwarehouse/pkg/database/sql"
	"medwarehouse/pkg/logging"
	"medwarehouse/pkg/models"
)

// Materializer owns the warehouse tables in ClickHouse. Every write is a
// full replace: rows land in a shadow build table that swaps with the live
// table in one EXCHANGE, so readers never observe a partial build.
type Materializer struct {
	conn   database.ClickHouseNativeConn
	logger logging.Logger
}

func NewMaterializer(conn database.ClickHouseNativeConn, logger logging.Logger) *Materializer {
	return &Materializer{conn: conn, logger: logger}
}

// EnsureSchema creates any warehouse table that does not exist yet.
func (m *Materializer) EnsureSchema(ctx context.Context) error {
	statements, err := sqlschema.Statements("clickhouse/marts.sql")
	if err != nil {
		return err
	}
	for _, stmt := range statements {
		if err := m.conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create warehouse table: %w", err)
		}
	}
	m.logger.WithFields(logging.Fields{"tables": len(statements)}).Debug("Warehouse schema ensured")
	return nil
}

// ReplaceStagedMessages rebuilds stg_messages.
func (m *Materializer) ReplaceStagedMessages(ctx context.Context, rows []models.StagedMessage) error {
	return m.replace(ctx, "stg_messages", stagedColumns, len(rows), func(batch database.ClickHouseBatch) error {
		for _, row := range rows {
			if err := batch.Append(stagedValues(row)...); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceDateDim rebuilds dim_dates.
func (m *Materializer) ReplaceDateDim(ctx context.Context, rows []models.DateDim) error {
	return m.replace(ctx, "dim_dates", dateColumns, len(rows), func(batch database.ClickHouseBatch) error {
		for _, row := range rows {
			if err := batch.Append(dateValues(row)...); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceChannelDim rebuilds dim_channels.
func (m *Materializer) ReplaceChannelDim(ctx context.Context, rows []models.ChannelDim) error {
	return m.replace(ctx, "dim_channels", channelColumns, len(rows), func(batch database.ClickHouseBatch) error {
		for _, row := range rows {
			if err := batch.Append(channelValues(row)...); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceFacts rebuilds fct_messages.
func (m *Materializer) ReplaceFacts(ctx context.Context, rows []models.FactMessage) error {
	return m.replace(ctx, "fct_messages", factColumns, len(rows), func(batch database.ClickHouseBatch) error {
		for _, row := range rows {
			if err := batch.Append(factValues(row)...); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceDetectionBridge rebuilds fct_message_detections.
func (m *Materializer) ReplaceDetectionBridge(ctx context.Context, rows []models.MessageDetection) error {
	return m.replace(ctx, "fct_message_detections", detectionColumns, len(rows), func(batch database.ClickHouseBatch) error {
		for _, row := range rows {
			if err := batch.Append(detectionValues(row)...); err != nil {
				return err
			}
		}
		return nil
	})
}

func (m *Materializer) replace(ctx context.Context, table string, columns []string, count int, appendRows func(database.ClickHouseBatch) error) error {
	shadow := buildTableName(table)
	if err := m.conn.Exec(ctx, cloneTableStatement(table)); err != nil {
		return fmt.Errorf("create build table for %s: %w", table, err)
	}
	if err := m.conn.Exec(ctx, "TRUNCATE TABLE "+shadow); err != nil {
		return fmt.Errorf("truncate build table for %s: %w", table, err)
	}

	if count > 0 {
		batch, err := m.conn.PrepareBatch(ctx, insertStatement(shadow, columns))
		if err != nil {
			return fmt.Errorf("prepare batch for %s: %w", table, err)
		}
		if err := appendRows(batch); err != nil {
			return fmt.Errorf("append rows for %s: %w", table, err)
		}
		if err := batch.Send(); err != nil {
			return fmt.Errorf("send batch for %s: %w", table, err)
		}
	}

	if err := m.conn.Exec(ctx, exchangeStatement(table)); err != nil {
		return fmt.Errorf("swap %s: %w", table, err)
	}
	// The shadow now holds the previous build; drop its rows eagerly.
	if err := m.conn.Exec(ctx, "TRUNCATE TABLE "+shadow); err != nil {
		return fmt.Errorf("truncate retired build for %s: %w", table, err)
	}

	m.logger.WithFields(logging.Fields{"table": table, "rows": count}).Info("Table replaced")
	return nil
}

func buildTableName(table string) string {
	return table + "__build"
}

func cloneTableStatement(table string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s AS %s", buildTableName(table), table)
}

func insertStatement(table string, columns []string) string {
	return fmt.Sprintf("INSERT INTO %s (%s)", table, strings.Join(columns, ", "))
}

func exchangeStatement(table string) string {
	return fmt.Sprintf("EXCHANGE TABLES %s AND %s", buildTableName(table), table)
}
