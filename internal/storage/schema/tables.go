package schema

// DefineEndpointStateTable 定义 endpoint_state 表结构
// 单表键值存储：首选前缀、上次检查记录、禁用集合
func DefineEndpointStateTable() *TableBuilder {
	return NewTable("endpoint_state").
		Column("state_key VARCHAR(191) NOT NULL PRIMARY KEY").
		Column("value MEDIUMTEXT NOT NULL").
		Column("updated_at BIGINT NOT NULL").
		Index("idx_endpoint_state_updated_at", "updated_at")
}
